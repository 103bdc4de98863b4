package tracker

import (
	"time"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

// Report 사이클 하나의 실행 결과 집계
type Report struct {
	StartedAt  time.Time
	FinishedAt time.Time

	Total       int
	Fetched     int
	FetchFailed int
	Unresolved  int
	ParseFailed int

	Available    int
	Notified     int
	NotifyFailed int
	Reset        int

	// Dirty 추적 목록이 바뀌어 저장을 시도했는지 여부
	Dirty bool

	// SaveErr 추적 목록 저장 실패 시의 에러
	SaveErr error
}

// Duration 사이클 소요 시간
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// LogFields 사이클 요약 로그에 첨부할 필드를 반환합니다.
func (r *Report) LogFields() applog.Fields {
	return applog.Fields{
		"total":         r.Total,
		"fetched":       r.Fetched,
		"fetch_failed":  r.FetchFailed,
		"unresolved":    r.Unresolved,
		"parse_failed":  r.ParseFailed,
		"available":     r.Available,
		"notified":      r.Notified,
		"notify_failed": r.NotifyFailed,
		"reset":         r.Reset,
		"dirty":         r.Dirty,
		"duration":      r.Duration().String(),
	}
}
