package bot

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"
	"time"

	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	// headerWebhookSecret setWebhook의 secret_token 값을 텔레그램이 모든 웹훅 요청에 실어 보내는 헤더
	headerWebhookSecret = "X-Telegram-Bot-Api-Secret-Token"

	// maxTrackedClients 속도 제한을 위해 기억하는 클라이언트 주소의 최대 개수
	maxTrackedClients = 10000

	// clientIdleTTL 이 시간 동안 요청이 없던 주소는 정원이 찼을 때 먼저 정리됩니다.
	clientIdleTTL = 3 * time.Minute
)

var (
	errRateLimitExceeded = echo.NewHTTPError(http.StatusTooManyRequests, "요청이 너무 많습니다. 잠시 후 다시 시도해주세요")
	errWebhookForbidden  = echo.NewHTTPError(http.StatusUnauthorized, "웹훅 인증에 실패했습니다")
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters 인증되지 않은 요청을 보낸 주소별 Token Bucket
type clientLimiters struct {
	mu      sync.Mutex
	clients map[string]*visitor
	rate    rate.Limit
	burst   int
	now     func() time.Time
}

func newClientLimiters(requestsPerSecond, burst int) *clientLimiters {
	return &clientLimiters{
		clients: make(map[string]*visitor),
		rate:    rate.Limit(requestsPerSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (l *clientLimiters) allow(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	c, ok := l.clients[addr]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.evict(now)
		}
		c = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.clients[addr] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// evict 유휴 주소를 정리하고, 그래도 정원이 차 있으면 가장 오래 조용했던 주소 하나를 제거합니다.
func (l *clientLimiters) evict(now time.Time) {
	var oldest string
	var oldestSeen time.Time

	for addr, c := range l.clients {
		if now.Sub(c.lastSeen) > clientIdleTTL {
			delete(l.clients, addr)
			continue
		}
		if oldest == "" || c.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen = addr, c.lastSeen
		}
	}

	if len(l.clients) >= maxTrackedClients && oldest != "" {
		delete(l.clients, oldest)
	}
}

// webhookGuard 웹훅 요청을 검사합니다.
//
// 올바른 secret 헤더를 가진 요청은 텔레그램이 보낸 것으로 보고 그대로 통과시킵니다.
// 텔레그램은 모든 채팅방의 업데이트를 소수의 주소에서 보내므로 주소별 제한을 걸면 정상 명령까지 막히게 됩니다.
// 그 밖의 요청은 주소별 속도 제한(429, Retry-After)을 먼저 거치고, secret이 설정된 경우 POST는 401로 거부됩니다.
// 속도 제한이 인증 검사보다 앞서므로 헤더 값을 추측하는 요청도 제한됩니다.
func webhookGuard(secret string, requestsPerSecond, burst int) echo.MiddlewareFunc {
	var limiters *clientLimiters
	if requestsPerSecond > 0 && burst > 0 {
		limiters = newClientLimiters(requestsPerSecond, burst)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if secret != "" && secretMatches(req.Header.Get(headerWebhookSecret), secret) {
				return next(c)
			}

			fields := applog.Fields{
				"remote_ip": c.RealIP(),
				"path":      req.URL.Path,
				"method":    req.Method,
			}

			if limiters != nil && !limiters.allow(c.RealIP()) {
				applog.WithComponentAndFields(component, fields).Warn("요청 차단: 속도 제한(Rate Limit)을 초과하였습니다")

				c.Response().Header().Set("Retry-After", "1")
				return errRateLimitExceeded
			}

			if secret != "" && req.Method == http.MethodPost {
				applog.WithComponentAndFields(component, fields).Warn("요청 차단: 웹훅 secret 헤더가 없거나 일치하지 않습니다")
				return errWebhookForbidden
			}

			return next(c)
		}
	}
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// httpLogger HTTP 요청/응답을 구조화된 로그로 기록합니다.
// 웹훅 본문에는 비밀 코드가 포함될 수 있으므로 본문은 기록하지 않습니다.
func httpLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			defer func() {
				latency := time.Since(start)

				bytesIn := req.Header.Get(echo.HeaderContentLength)
				if bytesIn == "" {
					bytesIn = "0"
				}

				applog.WithComponentAndFields(component, applog.Fields{
					"method":        req.Method,
					"path":          req.URL.Path,
					"remote_ip":     c.RealIP(),
					"user_agent":    req.UserAgent(),
					"status":        res.Status,
					"bytes_in":      bytesIn,
					"bytes_out":     strconv.FormatInt(res.Size, 10),
					"latency_human": latency.String(),
					"request_id":    res.Header().Get(echo.HeaderXRequestID),
				}).Info("HTTP 요청")
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}

			return nil
		}
	}
}
