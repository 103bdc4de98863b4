package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStd = errors.New("standard error")

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		errType  ErrorType
		message  string
		expected string
	}{
		{"설정 누락", InvalidInput, "텔레그램 토큰이 없습니다", "[InvalidInput] 텔레그램 토큰이 없습니다"},
		{"중복 상품", Conflict, "이미 추적 중입니다", "[Conflict] 이미 추적 중입니다"},
		{"분류 없음", Unknown, "unknown", "[Unknown] unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := New(tt.errType, tt.message)
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())

			var appErr *AppError
			require.True(t, As(err, &appErr))
			assert.Equal(t, tt.errType, appErr.Type())
			assert.Equal(t, tt.message, appErr.Message())
			assert.NotEmpty(t, appErr.Stack())
		})
	}
}

func TestNewf(t *testing.T) {
	t.Parallel()

	err := Newf(NotFound, "스토어 설정(%s)을 찾을 수 없습니다", "shop.example")
	assert.Equal(t, "[NotFound] 스토어 설정(shop.example)을 찾을 수 없습니다", err.Error())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("nil 에러는 nil을 반환한다", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, Wrap(nil, System, "무시"))
		assert.NoError(t, Wrapf(nil, System, "무시 %d", 1))
	})

	t.Run("원인 에러를 보존한다", func(t *testing.T) {
		t.Parallel()

		err := Wrap(errStd, System, "저장 실패")
		assert.Equal(t, "[System] 저장 실패: standard error", err.Error())
		assert.True(t, errors.Is(err, errStd))
		assert.Equal(t, errStd, RootCause(err))
	})

	t.Run("Wrapf 포맷을 적용한다", func(t *testing.T) {
		t.Parallel()

		err := Wrapf(errStd, ExecutionFailed, "전송 실패 (chat_id=%d)", 42)
		assert.Equal(t, "[ExecutionFailed] 전송 실패 (chat_id=42): standard error", err.Error())
	})
}

func TestIs(t *testing.T) {
	t.Parallel()

	base := New(Conflict, "중복")
	wrapped := Wrap(base, Internal, "추가 실패")
	outer := fmt.Errorf("bot: %w", wrapped)

	assert.True(t, Is(outer, Conflict))
	assert.True(t, Is(outer, Internal))
	assert.False(t, Is(outer, NotFound))
	assert.False(t, Is(nil, Conflict))
	assert.False(t, Is(errStd, Unknown))
}

func TestUnderlyingType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, Unknown},
		{"표준 에러", errStd, Unknown},
		{"단일 AppError", New(Timeout, "timeout"), Timeout},
		{"중첩 AppError", Wrap(New(NotFound, "nf"), Internal, "wrap"), NotFound},
		{"외부 에러 래핑", Wrap(errStd, ParsingFailed, "parse"), ParsingFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, UnderlyingType(tt.err))
		})
	}
}

func TestRootCause_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, RootCause(nil))
}

func TestAppError_Format(t *testing.T) {
	t.Parallel()

	err := Wrap(New(NotFound, "inner"), System, "outer")

	assert.Equal(t, "[System] outer: [NotFound] inner", fmt.Sprintf("%s", err))
	assert.Equal(t, `"[System] outer: [NotFound] inner"`, fmt.Sprintf("%q", err))

	detailed := fmt.Sprintf("%+v", err)
	assert.Contains(t, detailed, "[System] outer")
	assert.Contains(t, detailed, "Caused by:")
	assert.Contains(t, detailed, "Stack trace:")
	assert.Contains(t, detailed, "errors_test.go")
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Unavailable", Unavailable.String())
	assert.Equal(t, "ParsingFailed", ParsingFailed.String())
	assert.Equal(t, "ErrorType(99)", ErrorType(99).String())
	assert.Equal(t, "ErrorType(-1)", ErrorType(-1).String())
}
