package fetcher

import (
	"net/http"
	"time"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

// LoggingFetcher 요청 결과와 소요 시간을 Debug 레벨로 기록합니다.
// 실패 요약은 상품 단위로 FetchAll이 Warn 레벨로 남깁니다.
type LoggingFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*LoggingFetcher)(nil)

// NewLoggingFetcher 새로운 LoggingFetcher 인스턴스를 생성합니다.
func NewLoggingFetcher(delegate Fetcher) *LoggingFetcher {
	return &LoggingFetcher{delegate: delegate}
}

func (f *LoggingFetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := f.delegate.Do(req)

	fields := applog.Fields{
		"method":   req.Method,
		"url":      redactURL(req.URL),
		"duration": time.Since(start).String(),
	}
	if resp != nil {
		fields["status_code"] = resp.StatusCode
	}

	if err != nil {
		fields["error"] = err.Error()
		applog.WithComponentAndFields(component, fields).Debug("HTTP 요청 실패")
		return resp, err
	}

	applog.WithComponentAndFields(component, fields).Debug("HTTP 요청 성공")

	return resp, nil
}
