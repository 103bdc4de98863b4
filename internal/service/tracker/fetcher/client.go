package fetcher

import (
	"context"
	"fmt"
	"io"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"golang.org/x/sync/errgroup"
)

// Page 내려받은 상품 페이지입니다.
type Page struct {
	URL         string
	Body        []byte
	ContentType string
}

// Config Client 생성 옵션입니다.
type Config struct {
	// Timeout 요청 하나에 허용되는 전체 시간
	Timeout time.Duration

	// UserAgent 모든 요청에 사용할 고정 User-Agent
	UserAgent string

	// MaxConcurrency 동시에 진행할 최대 요청 수 (0 이하: 제한 없음)
	MaxConcurrency int

	// MaxBodyBytes 응답 Body 최대 크기 (0: 기본값, NoLimit: 제한 없음)
	MaxBodyBytes int64
}

// Client 상품 페이지 목록을 한 번에 내려받습니다.
type Client struct {
	fetcher        Fetcher
	http           *HTTPFetcher
	maxConcurrency int
}

// New 데코레이터 체인을 조립하여 Client를 생성합니다.
func New(cfg Config) *Client {
	h := NewHTTPFetcher(cfg.Timeout)

	var f Fetcher = h
	f = NewMaxBytesFetcher(f, cfg.MaxBodyBytes)
	f = NewStatusCodeFetcher(f)
	f = NewUserAgentFetcher(f, cfg.UserAgent)
	f = NewLoggingFetcher(f)

	return &Client{
		fetcher:        f,
		http:           h,
		maxConcurrency: cfg.MaxConcurrency,
	}
}

// FetchAll 모든 URL을 동시에 요청하고 전부 끝날 때까지 기다립니다.
//
// 반환되는 슬라이스는 urls와 길이와 순서가 같습니다. 실패한 URL의 자리는 nil이며,
// 실패는 해당 URL과 함께 로그로 남기고 다른 요청에는 영향을 주지 않습니다.
func (c *Client) FetchAll(ctx context.Context, urls []string) []*Page {
	pages := make([]*Page, len(urls))

	var g errgroup.Group
	if c.maxConcurrency > 0 {
		g.SetLimit(c.maxConcurrency)
	}

	for i, url := range urls {
		g.Go(func() error {
			page, err := c.Fetch(ctx, url)
			if err != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"url":   url,
					"error": err.Error(),
				}).Warn("페이지 요청 실패: 이번 사이클에서 해당 상품을 건너뜁니다")
				return nil
			}
			pages[i] = page
			return nil
		})
	}

	// 개별 요청은 에러를 반환하지 않으므로 Wait는 항상 nil입니다.
	_ = g.Wait()

	return pages
}

// Fetch URL 하나를 요청하여 Body 전체를 읽어 반환합니다.
func (c *Client) Fetch(ctx context.Context, url string) (*Page, error) {
	resp, err := Get(ctx, c.fetcher, url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.Wrap(err, apperrors.Timeout, "요청이 취소되었거나 제한 시간을 초과했습니다")
		}
		errType := apperrors.UnderlyingType(err)
		if errType == apperrors.Unknown {
			errType = apperrors.Unavailable
		}
		return nil, apperrors.Wrap(err, errType, fmt.Sprintf("페이지(%s) 요청 중 에러가 발생했습니다", url))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("페이지(%s)의 본문을 읽지 못했습니다", url))
	}

	return &Page{
		URL:         url,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Close 유휴 커넥션을 정리합니다.
func (c *Client) Close() error {
	return c.http.Close()
}
