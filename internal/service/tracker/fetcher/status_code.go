package fetcher

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
)

// maxBodySnippetBytes 에러 메시지에 포함할 응답 Body의 최대 크기
const maxBodySnippetBytes = 512

// HTTPStatusError 200 OK가 아닌 응답을 나타내는 에러입니다.
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string
	BodySnippet string
	Cause       error
}

func (e *HTTPStatusError) Error() string {
	msg := "HTTP " + e.Status
	if e.URL != "" {
		msg += " URL: " + e.URL
	}
	if e.BodySnippet != "" {
		msg += ", Body: " + e.BodySnippet
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}

// StatusCodeFetcher 200 OK가 아닌 응답을 에러로 변환합니다.
type StatusCodeFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher 새로운 StatusCodeFetcher 인스턴스를 생성합니다.
func NewStatusCodeFetcher(delegate Fetcher) *StatusCodeFetcher {
	return &StatusCodeFetcher{delegate: delegate}
}

// Do 에러를 반환하는 경우 응답 Body는 이 함수 안에서 정리됩니다.
func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	statusErr := newHTTPStatusError(resp)
	drainAndCloseBody(resp.Body)

	return nil, statusErr
}

func newHTTPStatusError(resp *http.Response) *HTTPStatusError {
	errType := apperrors.ExecutionFailed
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		errType = apperrors.Unavailable
	}

	e := &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Cause:      apperrors.New(errType, "페이지 요청이 실패했습니다"),
	}
	if resp.Request != nil {
		e.URL = redactURL(resp.Request.URL)
	}

	if resp.Body != nil {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippetBytes))
		e.BodySnippet = strings.TrimSpace(strings.ToValidUTF8(string(buf), string(utf8.RuneError)))
	}

	return e
}
