package fetcher

import (
	"io"
	"net/http"
	"strings"
)

// fetcherFunc 함수를 Fetcher로 사용하기 위한 어댑터
type fetcherFunc func(req *http.Request) (*http.Response, error)

func (f fetcherFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// trackingBody Close 호출 여부를 기록하는 Body
type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func newResponse(req *http.Request, status int, body string) (*http.Response, *trackingBody) {
	tb := &trackingBody{Reader: strings.NewReader(body)}
	return &http.Response{
		StatusCode:    status,
		Status:        http.StatusText(status),
		Body:          tb,
		ContentLength: int64(len(body)),
		Header:        make(http.Header),
		Request:       req,
	}, tb
}
