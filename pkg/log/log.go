// Package log logrus와 lumberjack 기반의 애플리케이션 로깅 기능을 제공합니다.
package log

import (
	"github.com/sirupsen/logrus"
)

// StandardLogger 전역 logrus 로거를 반환합니다.
// cron, echo 등 외부 라이브러리에 로거를 연결할 때 사용합니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}

// SetDebugMode Debug 모드이면 Trace 레벨, 아니면 Info 레벨로 설정합니다.
func SetDebugMode(debug bool) {
	if debug {
		logrus.SetLevel(TraceLevel)
	} else {
		logrus.SetLevel(InfoLevel)
	}
}

// WithFields 지정된 필드를 포함한 로그 Entry를 반환합니다.
func WithFields(fields Fields) *Entry {
	return logrus.WithFields(fields)
}

// WithComponent component 필드를 포함한 로그 Entry를 반환합니다.
func WithComponent(component string) *Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields component 필드와 추가 필드를 포함한 로그 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	newFields := make(Fields, len(fields)+1)
	for k, v := range fields {
		newFields[k] = v
	}
	newFields["component"] = component
	return logrus.WithFields(newFields)
}

// MaskSensitiveData 토큰, 비밀 코드 등을 로그에 남길 때 앞뒤 일부만 남기고 가립니다.
func MaskSensitiveData(data string) string {
	if data == "" {
		return ""
	}

	if len(data) <= 3 {
		return "***"
	}

	if len(data) <= 12 {
		return data[:4] + "***"
	}

	return data[:4] + "***" + data[len(data)-4:]
}
