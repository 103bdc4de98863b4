// Package cronx robfig/cron 표현식 파싱과 검증을 위한 보조 함수를 제공합니다.
package cronx

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// StandardParser 애플리케이션의 표준 Cron 표현식 파서를 반환합니다.
//
// 초 단위를 포함하는 6필드 형식([초] [분] [시] [일] [월] [요일])과
// @daily, @every <duration> 같은 Descriptor를 지원합니다. 5필드 형식은 지원하지 않습니다.
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Every 주어진 간격마다 실행되는 "@every" 표현식을 반환합니다.
// 예: Every(1200 * time.Second) == "@every 20m0s"
func Every(interval time.Duration) string {
	return "@every " + interval.String()
}

// Validate 표현식이 StandardParser로 해석 가능한지 검증합니다.
func Validate(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return fmt.Errorf("cron 표현식이 비어 있습니다")
	}

	if _, err := StandardParser().Parse(spec); err != nil {
		return fmt.Errorf("cron 표현식(%q) 해석 실패: %w", spec, err)
	}

	return nil
}
