package bot

import (
	"io"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/labstack/gommon/log"
)

// echoLogger Echo 내부 로그를 애플리케이션 로거로 보내는 어댑터입니다.
// Echo의 Logger 인터페이스(gommon/log)를 만족시키기 위한 위임 메서드가 대부분입니다.
type echoLogger struct {
	*applog.Logger
}

func (l echoLogger) Output() io.Writer {
	return l.Logger.Out
}

func (l echoLogger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

func (l echoLogger) Prefix() string {
	return ""
}

func (l echoLogger) SetPrefix(string) {}

func (l echoLogger) Level() log.Lvl {
	switch l.Logger.Level {
	case applog.DebugLevel, applog.TraceLevel:
		return log.DEBUG
	case applog.InfoLevel:
		return log.INFO
	case applog.WarnLevel:
		return log.WARN
	case applog.ErrorLevel:
		return log.ERROR
	default:
		return log.OFF
	}
}

func (l echoLogger) SetLevel(lvl log.Lvl) {
	switch lvl {
	case log.DEBUG:
		l.Logger.SetLevel(applog.DebugLevel)
	case log.INFO:
		l.Logger.SetLevel(applog.InfoLevel)
	case log.WARN:
		l.Logger.SetLevel(applog.WarnLevel)
	case log.ERROR:
		l.Logger.SetLevel(applog.ErrorLevel)
	case log.OFF:
		// 대응하는 레벨이 없음
	}
}

func (l echoLogger) SetHeader(string) {}

func (l echoLogger) Print(i ...interface{}) {
	l.Logger.Print(i...)
}

func (l echoLogger) Printf(format string, args ...interface{}) {
	l.Logger.Printf(format, args...)
}

func (l echoLogger) Printj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Print()
}

func (l echoLogger) Debug(i ...interface{}) {
	l.Logger.Debug(i...)
}

func (l echoLogger) Debugf(format string, args ...interface{}) {
	l.Logger.Debugf(format, args...)
}

func (l echoLogger) Debugj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Debug()
}

func (l echoLogger) Info(i ...interface{}) {
	l.Logger.Info(i...)
}

func (l echoLogger) Infof(format string, args ...interface{}) {
	l.Logger.Infof(format, args...)
}

func (l echoLogger) Infoj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Info()
}

func (l echoLogger) Warn(i ...interface{}) {
	l.Logger.Warn(i...)
}

func (l echoLogger) Warnf(format string, args ...interface{}) {
	l.Logger.Warnf(format, args...)
}

func (l echoLogger) Warnj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Warn()
}

func (l echoLogger) Error(i ...interface{}) {
	l.Logger.Error(i...)
}

func (l echoLogger) Errorf(format string, args ...interface{}) {
	l.Logger.Errorf(format, args...)
}

func (l echoLogger) Errorj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Error()
}

func (l echoLogger) Fatal(i ...interface{}) {
	l.Logger.Fatal(i...)
}

func (l echoLogger) Fatalf(format string, args ...interface{}) {
	l.Logger.Fatalf(format, args...)
}

func (l echoLogger) Fatalj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Fatal()
}

func (l echoLogger) Panic(i ...interface{}) {
	l.Logger.Panic(i...)
}

func (l echoLogger) Panicf(format string, args ...interface{}) {
	l.Logger.Panicf(format, args...)
}

func (l echoLogger) Panicj(j log.JSON) {
	l.Logger.WithFields(applog.Fields(j)).Panic()
}
