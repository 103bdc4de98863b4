package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRunner 실행 횟수를 기록하고, 지정된 경우 취소될 때까지 대기합니다.
type fakeRunner struct {
	calls   atomic.Int32
	started chan struct{}
	block   bool
	panics  bool
	err     error

	canceled atomic.Bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan struct{}, 10)}
}

func (r *fakeRunner) RunCycle(ctx context.Context) (*tracker.Report, error) {
	r.calls.Add(1)
	r.started <- struct{}{}

	if r.panics {
		panic("boom")
	}
	if r.block {
		<-ctx.Done()
		r.canceled.Store(true)
	}

	return &tracker.Report{}, r.err
}

func waitStarted(t *testing.T, r *fakeRunner) {
	t.Helper()

	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatal("사이클이 시작되지 않았습니다")
	}
}

func TestNewService_PanicsWithoutRunner(t *testing.T) {
	assert.PanicsWithValue(t, "CycleRunner는 필수입니다", func() {
		NewService("@every 1h", nil)
	})
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	r := newFakeRunner()
	s := NewService("@every 1h", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	cancel()
	wg.Wait()

	assert.Equal(t, int32(1), r.calls.Load())
	assert.False(t, s.running)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	r := newFakeRunner()
	s := NewService("@every 1s", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r) // 즉시 실행
	waitStarted(t, r) // 스케줄 실행

	cancel()
	wg.Wait()

	assert.GreaterOrEqual(t, r.calls.Load(), int32(2))
}

func TestScheduler_StopWaitsForInFlightCycle(t *testing.T) {
	r := newFakeRunner()
	r.block = true
	s := NewService("@every 1h", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	cancel()
	wg.Wait()

	assert.True(t, r.canceled.Load(), "종료 시 진행 중인 사이클의 Context가 취소되고, 사이클 종료를 기다려야 합니다")
}

func TestScheduler_SkipsTickWhileCycleRunning(t *testing.T) {
	r := newFakeRunner()
	r.block = true
	s := NewService("@every 1s", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	// 사이클이 주기보다 오래 걸리는 동안 도착한 실행 시점은 건너뜁니다. (지연 실행 없음)
	time.Sleep(2500 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())

	cancel()
	wg.Wait()
}

func TestScheduler_RecoversFromPanic(t *testing.T) {
	r := newFakeRunner()
	r.panics = true
	s := NewService("@every 1h", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	cancel()
	wg.Wait()
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestScheduler_CycleErrorIsNotFatal(t *testing.T) {
	r := newFakeRunner()
	r.err = apperrors.New(apperrors.System, "disk full")
	s := NewService("@every 1h", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	cancel()
	wg.Wait()
}

func TestScheduler_InvalidTimeSpec(t *testing.T) {
	s := NewService("every five minutes", newFakeRunner())

	var wg sync.WaitGroup
	wg.Add(1)

	err := s.Start(context.Background(), &wg)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	// Start 실패 시에도 WaitGroup은 정리되어야 합니다.
	wg.Wait()
	assert.False(t, s.running)
}

func TestScheduler_DuplicateStart(t *testing.T) {
	r := newFakeRunner()
	s := NewService("@every 1h", r)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	require.NoError(t, s.Start(ctx, &wg))
	waitStarted(t, r)

	wg.Add(1)
	require.NoError(t, s.Start(ctx, &wg))

	cancel()
	wg.Wait()
	assert.Equal(t, int32(1), r.calls.Load())
}
