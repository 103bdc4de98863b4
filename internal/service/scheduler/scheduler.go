// Package scheduler 설정된 주기마다 상품 확인 사이클을 실행하는 서비스입니다.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker"
	"github.com/darkkaiser/stock-tracker/pkg/cronx"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// CycleRunner 사이클 하나를 실행합니다.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*tracker.Report, error)
}

// Scheduler 시작 직후 한 번, 이후 timeSpec마다 사이클을 실행합니다.
// 이전 사이클이 끝나지 않았으면 이번 실행은 건너뜁니다.
type Scheduler struct {
	timeSpec string
	runner   CycleRunner

	cron *cron.Cron

	// cycles 즉시 실행을 포함한 모든 사이클의 종료를 기다리기 위한 WaitGroup
	cycles sync.WaitGroup

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(timeSpec string, runner CycleRunner) *Scheduler {
	if runner == nil {
		panic("CycleRunner는 필수입니다")
	}

	return &Scheduler{
		timeSpec: timeSpec,
		runner:   runner,
	}
}

// Start 스케줄을 등록하고 첫 사이클을 바로 시작합니다.
//
// serviceStopCtx가 취소되면 진행 중인 사이클의 요청이 취소되고, 사이클이 끝날 때까지 기다린 뒤 serviceStopWG.Done()을 호출합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	logger := cron.VerbosePrintfLogger(applog.StandardLogger())
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	id, err := c.AddFunc(s.timeSpec, func() { s.runCycle(serviceStopCtx) })
	if err != nil {
		serviceStopWG.Done()
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("스케줄 등록 실패: 잘못된 Cron 표현식입니다 (TimeSpec: %s)", s.timeSpec))
	}

	s.cron = c
	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.timeSpec,
		"next_run":  s.cron.Entry(id).Next,
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	// 첫 사이클은 스케줄을 기다리지 않고 바로 실행합니다.
	// 체인이 적용된 Job을 사용하므로 Recover와 SkipIfStillRunning이 동일하게 적용됩니다.
	wrapped := s.cron.Entry(id).WrappedJob
	go wrapped.Run()

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 스케줄을 중지하고 진행 중인 사이클이 끝날 때까지 기다립니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	s.cycles.Wait()

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.cycles.Add(1)
	defer s.cycles.Done()

	if ctx.Err() != nil {
		return
	}

	report, err := s.runner.RunCycle(ctx)
	if err != nil {
		fields := applog.Fields{"error": err.Error()}
		if report != nil {
			fields["duration"] = report.Duration().String()
		}
		applog.WithComponentAndFields(component, fields).Error("사이클 실행 중 오류가 발생했습니다")
	}
}
