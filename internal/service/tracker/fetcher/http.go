package fetcher

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultMaxIdleConns    = 100
	defaultIdleConnTimeout = 90 * time.Second
	defaultTLSTimeout      = 10 * time.Second
)

// HTTPFetcher net/http 클라이언트로 실제 요청을 수행하는 체인의 마지막 단계입니다.
type HTTPFetcher struct {
	client    *http.Client
	transport *http.Transport
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher timeout은 연결부터 Body를 모두 읽을 때까지 요청 하나에 허용되는 전체 시간입니다.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: defaultTLSTimeout,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxIdleConns,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		transport: transport,
	}
}

// Do 요청을 그대로 전송합니다.
func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

// Close 유휴 커넥션을 정리합니다.
func (h *HTTPFetcher) Close() error {
	h.transport.CloseIdleConnections()
	return nil
}
