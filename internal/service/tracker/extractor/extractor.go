// Package extractor 상품 페이지 HTML에서 상품명과 구매 가능 여부를 추출합니다.
package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/fetcher"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/registry"
	"golang.org/x/net/html/charset"
)

// UntitledPlaceholder 페이지와 저장된 목록 어디에서도 상품명을 얻지 못했을 때 사용하는 이름
const UntitledPlaceholder = "Без назви"

// Availability 구매 가능 여부
type Availability int

const (
	Unavailable Availability = iota
	Available
)

func (a Availability) String() string {
	if a == Available {
		return "available"
	}
	return "unavailable"
}

// Result 페이지 하나의 추출 결과
type Result struct {
	Title        string
	Availability Availability
}

// Extract 페이지를 파싱하여 Result를 반환합니다.
//
// 상품명은 TitleSelector에 처음 일치하는 요소의 텍스트이며, 없거나 비어 있으면 storedTitle을 사용합니다.
// BuyButtonSelector에 처음 일치하는 요소의 텍스트(앞뒤 공백 제거)가 BuyButtonText와 정확히 같을 때만 Available입니다.
func Extract(page *fetcher.Page, storedTitle string, p *registry.Profile) (*Result, error) {
	if page == nil || p == nil {
		return nil, apperrors.New(apperrors.Internal, "추출 대상 페이지 또는 스토어 설정이 없습니다")
	}

	doc, err := parse(page)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Title:        resolveTitle(doc, p.TitleSelector, storedTitle),
		Availability: Unavailable,
	}

	if btn := doc.Find(p.BuyButtonSelector).First(); btn.Length() > 0 {
		if strings.TrimSpace(btn.Text()) == p.BuyButtonText {
			result.Availability = Available
		}
	}

	return result, nil
}

// parse Content-Type 헤더와 meta charset을 참고하여 UTF-8로 변환한 뒤 DOM을 생성합니다.
func parse(page *fetcher.Page) (*goquery.Document, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("페이지(%s)의 인코딩 변환이 실패하였습니다", page.URL))
	}

	doc, err := goquery.NewDocumentFromReader(utf8Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("페이지(%s)의 HTML 파싱이 실패하였습니다", page.URL))
	}

	return doc, nil
}

func resolveTitle(doc *goquery.Document, selector, storedTitle string) string {
	if sel := doc.Find(selector).First(); sel.Length() > 0 {
		if title := strings.TrimSpace(sel.Text()); title != "" {
			return title
		}
	}

	if title := strings.TrimSpace(storedTitle); title != "" {
		return title
	}

	return UntitledPlaceholder
}
