package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileExt = "log"

	defaultDir        = "logs"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

var (
	// setupOnce 프로세스 생명주기 동안 Setup()이 한 번만 실행되도록 보장합니다.
	setupOnce sync.Once

	// 최초 Setup() 결과를 보관하여 재호출 시 동일한 값을 반환합니다.
	globalCloser   io.Closer
	globalSetupErr error
)

// Setup 전역 로깅 시스템을 초기화합니다.
//
// 모든 출력은 hook을 통해 레벨별 파일(main/critical/verbose)과 콘솔로 분배되며,
// 반환된 Closer는 main 함수에서 defer로 닫아야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setup(opts)
	})

	return globalCloser, globalSetupErr
}

func setup(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(opts.ReportCaller)

	// 실제 포맷팅은 hook에서 한 번만 수행합니다.
	logrus.SetFormatter(&silentFormatter{})
	logrus.SetOutput(io.Discard)

	dir := opts.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	h := &hook{
		formatter: newTextFormatter(opts.CallerPathPrefix),
	}

	mainWriter := newRotatingWriter(dir, opts, "")
	closers := []io.Closer{mainWriter}
	h.mainWriter = mainWriter

	if opts.EnableCriticalLog {
		w := newRotatingWriter(dir, opts, "critical")
		closers = append(closers, w)
		h.criticalWriter = w
	}
	if opts.EnableVerboseLog {
		w := newRotatingWriter(dir, opts, "verbose")
		closers = append(closers, w)
		h.verboseWriter = w
	}
	if opts.EnableConsoleLog {
		h.consoleWriter = os.Stdout
	}

	logrus.AddHook(h)

	c := &closer{
		closers: closers,
		hook:    h,
	}

	// Fatal 로그로 프로세스가 종료되기 직전에 남은 로그를 디스크에 기록합니다.
	logrus.RegisterExitHandler(func() {
		_ = c.Close()
	})

	return c, nil
}

// newRotatingWriter <dir>/<name>[.<suffix>].log 경로의 로테이션 파일 Writer를 생성합니다.
// lumberjack은 첫 Write 시점에 파일을 열기 때문에 생성 단계에서는 실패하지 않습니다.
func newRotatingWriter(dir string, opts Options, suffix string) *lumberjack.Logger {
	name := opts.Name
	if suffix != "" {
		name += "." + suffix
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+"."+fileExt),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   false,
		LocalTime:  true,
	}
}

func newTextFormatter(callerPathPrefix string) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if callerPathPrefix != "" {
				if cut, found := strings.CutPrefix(function, callerPathPrefix); found {
					function = "..." + cut
				}
			}
			return
		},
	}
}
