// Package fetcher 상품 페이지를 동시에 내려받는 HTTP 요청 계층입니다.
//
// 요청은 데코레이터 체인(Logging -> UserAgent -> StatusCode -> MaxBytes -> HTTP)을 거치며,
// 각 단계는 Fetcher 인터페이스를 구현합니다.
package fetcher

import (
	"context"
	"net/http"
)

// component 로깅용 컴포넌트 이름
const component = "tracker.fetcher"

// Fetcher HTTP 요청을 수행하는 인터페이스입니다.
//
// 구현체는 에러를 반환할 때 응답 Body를 직접 정리해야 하며, 성공 시 Body는 호출자가 닫습니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// Get 지정된 URL로 GET 요청을 전송합니다.
func Get(ctx context.Context, f Fetcher, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	return resp, nil
}
