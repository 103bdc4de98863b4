package fetcher

import (
	"net/http"
)

// UserAgentFetcher 모든 요청에 고정된 User-Agent를 설정합니다.
// 호출자가 이미 User-Agent를 지정한 요청은 그대로 전달합니다.
type UserAgentFetcher struct {
	delegate  Fetcher
	userAgent string
}

var _ Fetcher = (*UserAgentFetcher)(nil)

// NewUserAgentFetcher 새로운 UserAgentFetcher 인스턴스를 생성합니다.
func NewUserAgentFetcher(delegate Fetcher, userAgent string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:  delegate,
		userAgent: userAgent,
	}
}

// Do 원본 요청은 수정하지 않고 복제본에 User-Agent를 설정하여 전달합니다.
func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" || f.userAgent == "" {
		return f.delegate.Do(req)
	}

	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", f.userAgent)

	return f.delegate.Do(clonedReq)
}
