// Package telegram 텔레그램 봇 API로 입고 알림과 명령 응답을 전송합니다.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/pkg/mark"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const component = "notification.telegram"

const (
	// httpClientTimeout 텔레그램 API 호출 하나에 허용되는 시간
	httpClientTimeout = 30 * time.Second

	// 텔레그램은 같은 채팅방에 초당 1개 정도의 메시지만 허용합니다.
	defaultRateLimit = 1
	defaultRateBurst = 1

	// messageMaxLength 텔레그램 메시지 최대 길이(4096자)에서 여유를 둔 값
	messageMaxLength = 4000

	availableHeader = string(mark.InStock) + " Товар в наявності!"
)

// client 텔레그램 봇 API 중 이 패키지가 사용하는 부분
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier 설정된 채팅방으로 알림을 보내고, 임의의 채팅방에 명령 응답을 보냅니다.
// 모든 전송은 하나의 rate.Limiter를 공유합니다.
type Notifier struct {
	client  client
	chatID  int64
	token   string
	limiter *rate.Limiter
}

// New 봇 토큰을 검증(getMe)하고 Notifier를 생성합니다.
// apiEndpoint가 비어 있으면 공식 봇 API 주소를 사용합니다.
func New(token string, chatID int64, apiEndpoint string, debug bool) (*Notifier, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token": applog.MaskSensitiveData(token),
		"chat_id":   chatID,
	}).Debug("텔레그램 봇 클라이언트 초기화 시작")

	// http.DefaultClient에는 타임아웃이 없습니다.
	httpClient := &http.Client{Timeout: httpClientTimeout}

	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}

	botAPI, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, httpClient)
	if err != nil {
		return nil, apperrors.New(apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. 토큰이 올바른지 확인해주세요: "+redactToken(err.Error(), token))
	}
	botAPI.Debug = debug

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": botAPI.Self.UserName,
		"chat_id":      chatID,
	}).Info("텔레그램 봇 클라이언트 초기화 완료")

	return newNotifier(botAPI, chatID, token, rate.NewLimiter(defaultRateLimit, defaultRateBurst)), nil
}

func newNotifier(c client, chatID int64, token string, limiter *rate.Limiter) *Notifier {
	return &Notifier{
		client:  c,
		chatID:  chatID,
		token:   token,
		limiter: limiter,
	}
}

// FormatMessage 입고 알림 메시지를 만듭니다. 첫 줄은 헤더와 상품명, 둘째 줄은 URL입니다.
func FormatMessage(title, url string) string {
	return availableHeader + " " + title + "\n" + url
}

// Notify 입고 알림을 설정된 채팅방으로 전송합니다.
func (n *Notifier) Notify(ctx context.Context, title, url string) error {
	if err := n.send(ctx, n.chatID, FormatMessage(title, url)); err != nil {
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"title": title,
		"url":   url,
	}).Info("입고 알림 전송 완료")

	return nil
}

// Reply 명령을 보낸 채팅방으로 응답을 전송합니다.
func (n *Notifier) Reply(ctx context.Context, chatID int64, text string) error {
	return n.send(ctx, chatID, text)
}

func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.Timeout, "메시지 전송 대기 중 취소되었습니다")
	}

	msg := tgbotapi.NewMessage(chatID, truncate(text, messageMaxLength))
	if _, err := n.client.Send(msg); err != nil {
		return apperrors.New(apperrors.ExecutionFailed, fmt.Sprintf("텔레그램 메시지 전송에 실패했습니다 (chat_id: %d): %s", chatID, redactToken(err.Error(), n.token)))
	}

	return nil
}

// redactToken 라이브러리 에러 메시지에 요청 URL과 함께 포함된 봇 토큰을 가립니다.
func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, applog.MaskSensitiveData(token))
}

// truncate UTF-8 문자 경계를 지키며 maxLen 바이트 이하로 자릅니다.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := 0
	for i := range s {
		if i > maxLen-len("…") {
			break
		}
		cut = i
	}
	return s[:cut] + "…"
}
