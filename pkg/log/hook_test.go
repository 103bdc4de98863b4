package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHook() (*hook, *safeBuffer, *safeBuffer, *safeBuffer, *safeBuffer) {
	mainBuf, criticalBuf, verboseBuf, consoleBuf := &safeBuffer{}, &safeBuffer{}, &safeBuffer{}, &safeBuffer{}
	h := &hook{
		mainWriter:     mainBuf,
		criticalWriter: criticalBuf,
		verboseWriter:  verboseBuf,
		consoleWriter:  consoleBuf,
		formatter:      &logrus.TextFormatter{DisableTimestamp: true},
	}
	return h, mainBuf, criticalBuf, verboseBuf, consoleBuf
}

func fire(t *testing.T, h *hook, level Level, msg string) error {
	t.Helper()
	return h.Fire(&Entry{Logger: logrus.New(), Level: level, Message: msg, Data: Fields{}})
}

func TestHook_Fire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		level        Level
		wantMain     bool
		wantCritical bool
		wantVerbose  bool
	}{
		{"Error", ErrorLevel, true, true, false},
		{"Warn", WarnLevel, true, false, false},
		{"Info", InfoLevel, true, false, false},
		{"Debug", DebugLevel, false, false, true},
		{"Trace", TraceLevel, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, mainBuf, criticalBuf, verboseBuf, consoleBuf := newTestHook()
			require.NoError(t, fire(t, h, tt.level, "message"))

			assert.Equal(t, tt.wantMain, mainBuf.String() != "")
			assert.Equal(t, tt.wantCritical, criticalBuf.String() != "")
			assert.Equal(t, tt.wantVerbose, verboseBuf.String() != "")
			assert.Contains(t, consoleBuf.String(), "message", "콘솔에는 모든 레벨이 기록됩니다")
		})
	}
}

func TestHook_WriteFailureStillWritesMain(t *testing.T) {
	t.Parallel()

	h, mainBuf, _, _, _ := newTestHook()
	h.criticalWriter = failWriter{}

	err := fire(t, h, ErrorLevel, "persist failed")
	require.Error(t, err)
	assert.Contains(t, mainBuf.String(), "persist failed")
}

func TestHook_Closed(t *testing.T) {
	t.Parallel()

	h, mainBuf, _, _, _ := newTestHook()
	require.NoError(t, h.Close())

	require.NoError(t, fire(t, h, InfoLevel, "ignored"))
	assert.Empty(t, mainBuf.String())
}
