// Package registry 스토어별 추출 규칙(Profile)을 보관하고 상품 URL에 맞는 규칙을 찾아줍니다.
package registry

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/darkkaiser/stock-tracker/internal/config"
	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/iancoleman/strcase"
)

const component = "tracker.registry"

// Profile 스토어 하나의 추출 규칙입니다.
type Profile struct {
	// ID 설정 파일의 스토어 키를 snake_case로 정규화한 값
	ID string

	// BaseURL 상품 URL의 호스트와 비교할 도메인 조각
	BaseURL string

	TitleSelector     string
	BuyButtonSelector string
	BuyButtonText     string
}

// Registry 스토어 Profile 목록입니다. 생성 이후에는 변경되지 않으므로 동시에 읽어도 안전합니다.
type Registry struct {
	profiles []*Profile
}

// New 설정의 스토어 목록으로 Registry를 생성합니다.
//
// 스토어 키는 snake_case로 정규화하며, 정규화 결과가 겹치는 키("RozetkaUA"와 "rozetka_ua" 등)는 에러입니다.
// Profile은 ID 순으로 정렬되어 URL 해석 시 우선순위가 항상 같습니다.
func New(stores map[string]config.StoreConfig) (*Registry, error) {
	seen := make(map[string]string, len(stores))
	profiles := make([]*Profile, 0, len(stores))

	for key, s := range stores {
		id := strcase.ToSnake(strings.TrimSpace(key))
		if id == "" {
			return nil, apperrors.New(apperrors.InvalidInput, "스토어 식별자가 비어 있습니다")
		}
		if prev, exists := seen[id]; exists {
			return nil, apperrors.New(apperrors.InvalidInput, fmt.Sprintf("스토어 식별자가 중복됩니다: '%s', '%s' (정규화: '%s')", prev, key, id))
		}
		seen[id] = key

		profiles = append(profiles, &Profile{
			ID:                id,
			BaseURL:           strings.TrimSpace(s.BaseURL),
			TitleSelector:     s.TitleSelector,
			BuyButtonSelector: s.BuyButtonSelector,
			BuyButtonText:     s.BuyButtonText,
		})
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })

	return &Registry{profiles: profiles}, nil
}

// Len 등록된 Profile 개수를 반환합니다.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Profiles 등록된 Profile 목록의 복사본을 ID 순으로 반환합니다.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Resolve 상품 URL의 호스트가 BaseURL에 포함되는 Profile을 찾습니다.
//
// 찾지 못하면 nil과 false를 반환합니다. 여러 Profile이 일치하면 ID 순으로 첫 번째를 사용하고 경고를 남깁니다.
func (r *Registry) Resolve(rawURL string) (*Profile, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return nil, false
	}

	var matched []*Profile
	for _, p := range r.profiles {
		if strings.Contains(p.BaseURL, host) {
			matched = append(matched, p)
		}
	}

	switch len(matched) {
	case 0:
		return nil, false
	case 1:
		return matched[0], true
	}

	ids := make([]string, len(matched))
	for i, p := range matched {
		ids[i] = p.ID
	}
	applog.WithComponentAndFields(component, applog.Fields{
		"host":       host,
		"candidates": ids,
		"selected":   matched[0].ID,
	}).Warn("스토어 설정 중복: 하나의 도메인에 여러 스토어 설정이 일치하여 첫 번째 설정을 사용합니다")

	return matched[0], true
}

// hostOf URL의 호스트(포트 포함)를 반환합니다. 해석할 수 없으면 빈 문자열을 반환합니다.
func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return u.Host
}
