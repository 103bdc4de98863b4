// Package tracker 추적 목록의 상품 페이지를 확인하고 입고 알림을 보내는 사이클 엔진입니다.
//
// 한 사이클은 다음 순서로 진행됩니다.
//
//  1. 저장소에서 추적 목록을 다시 읽습니다.
//  2. 모든 상품 페이지를 동시에 요청하고 전부 끝날 때까지 기다립니다.
//  3. 목록 순서대로 스토어 설정 해석, 추출, 상태 판정, 알림 전송을 하나씩 수행합니다.
//  4. 바뀐 항목이 있으면 목록 전체를 한 번 저장합니다.
//  5. 마지막 확인 시각을 기록합니다.
package tracker

import (
	"context"
	"time"

	"github.com/darkkaiser/stock-tracker/internal/service/tracker/extractor"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/fetcher"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/registry"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/state"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

const component = "tracker.engine"

// PageFetcher 상품 페이지를 한 번에 내려받습니다. 실패한 URL의 자리는 nil입니다.
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string) []*fetcher.Page
}

// ProfileResolver 상품 URL에 맞는 스토어 설정을 찾습니다.
type ProfileResolver interface {
	Resolve(url string) (*registry.Profile, bool)
}

// Notifier 입고 알림을 전송합니다.
type Notifier interface {
	Notify(ctx context.Context, title, url string) error
}

// LastCheckRecorder 사이클 종료 시각을 기록합니다.
type LastCheckRecorder interface {
	SaveLastCheck(t time.Time) error
}

// Deps Engine이 사용하는 협력 객체 모음
type Deps struct {
	List      *watchlist.List
	Fetcher   PageFetcher
	Resolver  ProfileResolver
	Notifier  Notifier
	LastCheck LastCheckRecorder

	// Now 테스트에서 시각을 고정할 때 사용합니다. nil이면 time.Now
	Now func() time.Time
}

// Engine 사이클 하나를 실행합니다. 동시에 두 사이클을 실행하지 않도록 호출 측(스케줄러)에서 보장해야 합니다.
type Engine struct {
	list      *watchlist.List
	fetcher   PageFetcher
	resolver  ProfileResolver
	notifier  Notifier
	lastCheck LastCheckRecorder
	now       func() time.Time
}

// NewEngine 새로운 Engine 인스턴스를 생성합니다.
func NewEngine(d Deps) *Engine {
	if d.List == nil || d.Fetcher == nil || d.Resolver == nil || d.Notifier == nil {
		panic("tracker: NewEngine에 필수 의존성(List, Fetcher, Resolver, Notifier)이 누락되었습니다")
	}

	now := d.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		list:      d.List,
		fetcher:   d.Fetcher,
		resolver:  d.Resolver,
		notifier:  d.Notifier,
		lastCheck: d.LastCheck,
		now:       now,
	}
}

// RunCycle 사이클 하나를 실행합니다.
//
// 상품 단위의 실패(요청 실패, 스토어 설정 없음, 파싱 실패, 알림 실패)는 로그로 남기고 Report에 집계하며 에러로 반환하지 않습니다.
// 추적 목록을 읽지 못했거나 저장하지 못한 경우에만 에러를 반환합니다.
func (e *Engine) RunCycle(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: e.now()}

	applog.WithComponent(component).Info("사이클 시작: 상품 확인을 시작합니다")

	if err := e.list.Reload(); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err.Error(),
		}).Error("사이클 중단: 추적 목록을 읽지 못했습니다")

		report.FinishedAt = e.now()
		return report, err
	}

	items := e.list.Snapshot()
	report.Total = len(items)

	urls := make([]string, len(items))
	for i, item := range items {
		urls[i] = item.URL
	}

	pages := e.fetcher.FetchAll(ctx, urls)

	changes := make(map[string]bool)
	for i, item := range items {
		var page *fetcher.Page
		if i < len(pages) {
			page = pages[i]
		}

		if notified, changed := e.process(ctx, item, page, report); changed {
			changes[item.URL] = notified
		}
	}

	dirty, saveErr := e.list.Apply(changes)
	report.Dirty = dirty
	if saveErr != nil {
		report.SaveErr = saveErr

		applog.WithComponentAndFields(component, applog.Fields{
			"changes": len(changes),
			"error":   saveErr.Error(),
		}).Error("추적 목록 저장 실패: 변경 사항을 메모리에 유지하고 다음 사이클에서 다시 저장합니다")
	} else if dirty {
		applog.WithComponentAndFields(component, applog.Fields{
			"changes": len(changes),
		}).Info("추적 목록 저장 완료")
	}

	report.FinishedAt = e.now()

	if e.lastCheck != nil {
		if err := e.lastCheck.SaveLastCheck(report.FinishedAt); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err.Error(),
			}).Error("마지막 확인 시각 기록 실패")
		}
	}

	applog.WithComponentAndFields(component, report.LogFields()).Info("사이클 완료")

	return report, saveErr
}

// process 상품 하나를 판정하고 필요하면 알림을 보냅니다.
// notified 값이 바뀌어야 하면 새 값과 true를 반환합니다.
func (e *Engine) process(ctx context.Context, item watchlist.Item, page *fetcher.Page, report *Report) (notified bool, changed bool) {
	if page == nil {
		report.FetchFailed++
		return false, false
	}
	report.Fetched++

	fields := applog.Fields{
		"url":   item.URL,
		"title": item.Title,
	}

	profile, ok := e.resolver.Resolve(item.URL)
	if !ok {
		report.Unresolved++
		applog.WithComponentAndFields(component, fields).Warn("스토어 설정 없음: 해당 도메인에 일치하는 스토어 설정이 없어 건너뜁니다")
		return false, false
	}

	result, err := extractor.Extract(page, item.Title, profile)
	if err != nil {
		report.ParseFailed++
		fields["error"] = err.Error()
		applog.WithComponentAndFields(component, fields).Warn("페이지 분석 실패: 이번 사이클에서 건너뜁니다")
		return false, false
	}

	if result.Availability == extractor.Available {
		report.Available++
	}

	action := state.Decide(result, item.Notified)

	fields["store"] = profile.ID
	fields["availability"] = result.Availability.String()
	fields["action"] = action.String()
	applog.WithComponentAndFields(component, fields).Debug("상품 판정 완료")

	switch action {
	case state.ActionNotify:
		if err := e.notifier.Notify(ctx, result.Title, item.URL); err != nil {
			report.NotifyFailed++
			fields["error"] = err.Error()
			applog.WithComponentAndFields(component, fields).Error("입고 알림 전송 실패: 다음 사이클에서 다시 시도합니다")
			return false, false
		}
		report.Notified++
		return true, true

	case state.ActionReset:
		report.Reset++
		applog.WithComponentAndFields(component, fields).Info("품절 전환: 알림 상태를 초기화합니다")
		return false, true
	}

	return false, false
}
