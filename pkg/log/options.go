package log

import (
	"fmt"
	"os"
)

// Options 로거 설정을 위한 구조체입니다.
type Options struct {
	Name  string // 로그 파일명 생성에 사용될 애플리케이션 식별자
	Dir   string // 로그 파일이 저장될 디렉토리 경로 (빈 값: ./logs)
	Level Level  // 로그 레벨 (0: InfoLevel)

	MaxAge     int // 오래된 로그 삭제 기준일 (0: 삭제 안 함)
	MaxSizeMB  int // 로그 파일 최대 크기 (0: 100MB)
	MaxBackups int // 최대 백업 파일 수 (0: 20개)

	EnableCriticalLog bool // ERROR 이상을 <name>.critical.log 로 분리
	EnableVerboseLog  bool // DEBUG 이하를 <name>.verbose.log 로 분리
	EnableConsoleLog  bool // 표준 출력에도 기록

	ReportCaller     bool   // 호출 위치(함수명, 라인) 기록 여부
	CallerPathPrefix string // 호출 위치에서 생략할 패키지 경로 prefix
}

// Validate 옵션 값이 유효한지 검증합니다.
func (opts *Options) Validate() error {
	if opts.Name == "" {
		return fmt.Errorf("애플리케이션 식별자(Name)가 설정되지 않았습니다")
	}

	if opts.Dir != "" {
		if info, err := os.Stat(opts.Dir); err == nil && !info.IsDir() {
			return fmt.Errorf("로그 디렉토리 경로(%s)가 이미 파일로 존재합니다", opts.Dir)
		}
	}

	if opts.MaxAge < 0 {
		return fmt.Errorf("MaxAge는 0 이상이어야 합니다: %d", opts.MaxAge)
	}
	if opts.MaxSizeMB < 0 {
		return fmt.Errorf("MaxSizeMB는 0 이상이어야 합니다: %d", opts.MaxSizeMB)
	}
	if opts.MaxBackups < 0 {
		return fmt.Errorf("MaxBackups는 0 이상이어야 합니다: %d", opts.MaxBackups)
	}

	return nil
}
