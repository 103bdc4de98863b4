// Package bot 텔레그램 웹훅으로 추적 목록을 조회하고 상품을 추가하는 명령 봇 서버입니다.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const component = "bot.service"

const (
	// shutdownTimeout Graceful Shutdown 시 최대 대기 시간
	shutdownTimeout = 5 * time.Second

	// maxBodySize 텔레그램 업데이트 하나의 크기로는 충분한 값
	maxBodySize = "1M"

	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
)

// Config 봇 서버 설정
type Config struct {
	Debug      bool
	ListenPort int

	// WebhookSecret 비어 있지 않으면 웹훅 요청의 secret 헤더를 검사합니다.
	WebhookSecret string

	RateLimitPerSecond int
	RateLimitBurst     int
}

// Service 명령 봇 HTTP 서버의 생명주기를 관리합니다.
type Service struct {
	config  Config
	handler *Handler

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(config Config, handler *Handler) *Service {
	if handler == nil {
		panic("Handler는 필수입니다")
	}

	return &Service{
		config:  config,
		handler: handler,
	}
}

// Start 별도의 고루틴에서 HTTP 서버를 시작하고 즉시 반환합니다.
//
// serviceStopCtx가 취소되면 Graceful Shutdown을 수행한 뒤 serviceStopWG.Done()을 호출합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: 명령 봇 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(component).Warn("명령 봇 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponentAndFields(component, applog.Fields{
		"port": s.config.ListenPort,
	}).Info("서비스 시작 완료: 명령 봇 서비스가 정상적으로 초기화되었습니다")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := newHTTPServer(s.config, s.handler)

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	err := e.Start(fmt.Sprintf(":%d", s.config.ListenPort))
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(component).Info("HTTP 서버가 종료되었습니다")
		return
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"port":  s.config.ListenPort,
		"error": err,
	}).Error("HTTP 서버 실행 중 치명적인 오류가 발생했습니다")
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(component).Info("종료 절차 진입: 명령 봇 서비스 중지 시그널을 수신했습니다")
	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 종료됨
		applog.WithComponent(component).Error("HTTP 서버가 예기치 않게 종료되었습니다")

		s.cleanup()

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 종료 중 오류가 발생했습니다")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(component).Info("명령 봇 서비스 종료 완료")
}

// newHTTPServer 미들웨어와 라우트가 설정된 Echo 인스턴스를 생성합니다.
//
// 미들웨어 순서: Recover -> RequestID -> HTTPLogger -> RateLimit -> BodyLimit
// 로깅을 속도 제한보다 앞에 두어 429 응답도 기록되도록 합니다.
func newHTTPServer(config Config, handler *Handler) *echo.Echo {
	e := echo.New()

	e.Debug = config.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadHeaderTimeout = readHeaderTimeout
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout
	e.Server.IdleTimeout = idleTimeout

	e.Logger = echoLogger{Logger: applog.StandardLogger()}

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			applog.WithComponentAndFields(component, applog.Fields{
				"error":      err,
				"stack":      string(stack),
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).Error("PANIC RECOVERED")

			return err
		},
	}))
	e.Use(middleware.RequestID())
	e.Use(httpLogger())
	e.Use(webhookGuard(config.WebhookSecret, config.RateLimitPerSecond, config.RateLimitBurst))
	e.Use(middleware.BodyLimit(maxBodySize))

	e.GET("/", handler.Health)
	e.POST("/", handler.Webhook)

	return e
}
