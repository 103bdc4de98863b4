package mark

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMark_WithSpace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		mark Mark
		want string
	}{
		{name: "InStock", mark: InStock, want: "🟢 "},
		{name: "Notified", mark: Notified, want: "🔔 "},
		{name: "빈 마크", mark: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.mark.WithSpace())
		})
	}
}

func TestForNotified(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Notified, ForNotified(true))
	assert.Equal(t, Waiting, ForNotified(false))
	assert.Equal(t, "🔕", ForNotified(false).String())
}
