package log

import (
	"github.com/sirupsen/logrus"
)

// Level logrus.Level의 별칭입니다.
type Level = logrus.Level

const (
	// PanicLevel 로그 기록 후 panic()을 호출합니다.
	PanicLevel Level = logrus.PanicLevel

	// FatalLevel 로그 기록 후 os.Exit(1)로 프로세스를 종료합니다. 시작 단계의 설정 오류에 사용합니다.
	FatalLevel Level = logrus.FatalLevel

	// ErrorLevel 관리자의 확인이 필요한 오류입니다. 상태 파일 저장 실패 등이 여기에 해당합니다.
	ErrorLevel Level = logrus.ErrorLevel

	// WarnLevel 사이클은 계속되지만 주의가 필요한 상황입니다. (페이지 요청 실패, 스토어 설정 없음 등)
	WarnLevel Level = logrus.WarnLevel

	// InfoLevel 사이클 시작/종료, 알림 전송 등 정상 흐름을 기록합니다.
	InfoLevel Level = logrus.InfoLevel

	// DebugLevel 상품별 판정 결과 등 상세 정보를 기록합니다.
	DebugLevel Level = logrus.DebugLevel

	// TraceLevel 가장 세밀한 추적 정보입니다.
	TraceLevel Level = logrus.TraceLevel
)

// AllLevels logrus.AllLevels의 별칭입니다.
var AllLevels = logrus.AllLevels

// Fields logrus.Fields의 별칭입니다.
type Fields = logrus.Fields

// Entry logrus.Entry의 별칭입니다.
type Entry = logrus.Entry

// Logger logrus.Logger의 별칭입니다.
type Logger = logrus.Logger

// Formatter logrus.Formatter의 별칭입니다.
type Formatter = logrus.Formatter

// TextFormatter logrus.TextFormatter의 별칭입니다.
type TextFormatter = logrus.TextFormatter
