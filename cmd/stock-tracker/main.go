package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/stock-tracker/internal/config"
	"github.com/darkkaiser/stock-tracker/internal/pkg/version"
	"github.com/darkkaiser/stock-tracker/internal/service"
	"github.com/darkkaiser/stock-tracker/internal/service/bot"
	"github.com/darkkaiser/stock-tracker/internal/service/notification/telegram"
	"github.com/darkkaiser/stock-tracker/internal/service/scheduler"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/fetcher"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/registry"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/storage"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
)

const component = "main"

const (
	banner = `
  ____  _             _      _____                _
 / ___|| |_ ___   ___| | __ |_   _| __ __ _  ___| | _____ _ __
 \___ \| __/ _ \ / __| |/ /   | || '__/ _' |/ __| |/ / _ \ '__|
  ___) | || (_) | (__|   <    | || | | (_| | (__|   <  __/ |
 |____/ \__\___/ \___|_|\_\   |_||_|  \__,_|\___|_|\_\___|_|
                                                       %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	os.Exit(run(config.DefaultFilename, config.DefaultTelegramFilename, os.Stdout, os.Stderr))
}

// run 애플리케이션을 실행하고 프로세스 종료 코드를 반환합니다.
//
// 설정 로드, 추적 목록 초기 로드, 텔레그램 클라이언트 초기화 중 하나라도 실패하면
// 페이지 요청을 하나도 보내지 않고 1을 반환합니다.
func run(configFilename, telegramFilename string, stdout, stderr io.Writer) int {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFiles(configFilename, telegramFilename)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		return 1
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(stderr, "[FATAL] 로그 시스템 초기화 실패. 구동을 중단합니다. (Cause: %v)\n", err)
		return 1
	}
	defer appLogCloser.Close()

	applog.SetDebugMode(appConfig.Debug)

	buildInfo := version.Get()
	fmt.Fprintf(stdout, banner, buildInfo.Version)

	applog.WithComponentAndFields(component, buildInfo.LogFields()).Info("애플리케이션 초기화 시작")

	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent(component).Warn(w)
	}

	// 3. 구성 요소 생성
	c, err := newComponents(appConfig)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("초기화 실패로 프로그램을 종료합니다")
		return 1
	}
	defer c.fetcher.Close()

	// 4. 단일 실행 모드: 사이클 한 번 실행 후 종료
	if appConfig.RunOnce {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		report, err := c.engine.RunCycle(ctx)
		if err != nil {
			// 상태 저장 실패는 다음 실행에서 재시도되므로 종료 코드에는 반영하지 않는다.
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Error("사이클 실행 중 오류가 발생했습니다")
		}
		if report != nil {
			applog.WithComponentAndFields(component, report.LogFields()).Info("단일 실행 모드 완료")
		}

		return 0
	}

	// 5. 상시 실행 모드: 스케줄러와 명령 봇 시작
	services := []service.Service{
		scheduler.NewService(appConfig.ScheduleSpec(), c.engine),
	}
	if appConfig.Bot.Enabled {
		handler := bot.NewHandler(c.notifier, c.list, c.store, appConfig.Bot.SecretCode)
		services = append(services, bot.NewService(bot.Config{
			Debug:              appConfig.Debug,
			ListenPort:         appConfig.Bot.ListenPort,
			WebhookSecret:      appConfig.Bot.WebhookSecret,
			RateLimitPerSecond: appConfig.Bot.RateLimitPerSecond,
			RateLimitBurst:     appConfig.Bot.RateLimitBurst,
		}, handler))
	}

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	serviceStopWG := &sync.WaitGroup{}

	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			return 1
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponentAndFields(component, applog.Fields{
		"schedule":    appConfig.ScheduleSpec(),
		"bot_enabled": appConfig.Bot.Enabled,
		"items":       c.list.Len(),
	}).Info("가동 완료")

	<-termC

	applog.WithComponent(component).Info("종료 시그널을 수신했습니다")
	cancel()
	serviceStopWG.Wait()

	return 0
}

// components 사이클 실행과 명령 봇이 공유하는 구성 요소
type components struct {
	engine   *tracker.Engine
	list     *watchlist.List
	store    *storage.FileStore
	notifier *telegram.Notifier
	fetcher  *fetcher.Client
}

// newComponents 사이클 실행에 필요한 구성 요소를 생성합니다.
// 추적 목록을 읽을 수 없거나 텔레그램 설정이 올바르지 않으면 에러를 반환합니다.
func newComponents(appConfig *config.AppConfig) (*components, error) {
	reg, err := registry.New(appConfig.Stores)
	if err != nil {
		return nil, err
	}

	store := storage.NewFileStore(appConfig.Storage.ProductsFile, appConfig.Storage.LastCheckFile)
	list := watchlist.New(store)
	if err := list.Reload(); err != nil {
		return nil, err
	}

	notifier, err := telegram.New(appConfig.Telegram.Token, appConfig.Telegram.ChatID, appConfig.Telegram.APIEndpoint, appConfig.Debug)
	if err != nil {
		return nil, err
	}

	client := fetcher.New(fetcher.Config{
		Timeout:        appConfig.Fetch.Timeout,
		UserAgent:      appConfig.Fetch.UserAgent,
		MaxConcurrency: appConfig.Fetch.MaxConcurrency,
		MaxBodyBytes:   appConfig.Fetch.MaxBodyBytes,
	})

	engine := tracker.NewEngine(tracker.Deps{
		List:      list,
		Fetcher:   client,
		Resolver:  reg,
		Notifier:  notifier,
		LastCheck: store,
	})

	storeIDs := make([]string, 0, reg.Len())
	for _, p := range reg.Profiles() {
		storeIDs = append(storeIDs, p.ID)
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"stores":        storeIDs,
		"items":         list.Len(),
		"products_file": store.ProductsPath(),
	}).Info("추적 구성 요소 초기화 완료")

	return &components{
		engine:   engine,
		list:     list,
		store:    store,
		notifier: notifier,
		fetcher:  client,
	}, nil
}
