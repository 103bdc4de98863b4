package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/internal/pkg/mark"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
	applog "github.com/darkkaiser/stock-tracker/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/tidwall/gjson"
)

// Replier 명령을 보낸 채팅방으로 응답을 전송합니다.
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// LastCheckLoader 마지막 확인 시각을 읽습니다. 기록이 없으면 ok는 false입니다.
type LastCheckLoader interface {
	LoadLastCheck() (value string, ok bool, err error)
}

// Handler 텔레그램 웹훅 요청을 처리합니다.
type Handler struct {
	replier    Replier
	list       *watchlist.List
	lastCheck  LastCheckLoader
	secretCode string
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(replier Replier, list *watchlist.List, lastCheck LastCheckLoader, secretCode string) *Handler {
	if replier == nil {
		panic("Replier는 필수입니다")
	}
	if list == nil {
		panic("watchlist.List는 필수입니다")
	}
	if lastCheck == nil {
		panic("LastCheckLoader는 필수입니다")
	}

	return &Handler{
		replier:    replier,
		list:       list,
		lastCheck:  lastCheck,
		secretCode: secretCode,
	}
}

// Health GET / 요청에 봇 동작 여부를 응답합니다.
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, msgRunning)
}

// Webhook POST / 요청으로 전달된 텔레그램 업데이트를 처리합니다.
//
// 메시지가 없거나 텍스트가 비어 있는 업데이트는 무시합니다.
// 응답 전송에 실패해도 텔레그램이 같은 업데이트를 재전송하지 않도록 항상 200을 반환합니다.
func (h *Handler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "요청 본문을 읽을 수 없습니다")
	}
	if !gjson.ValidBytes(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "잘못된 JSON 형식입니다")
	}

	message := gjson.GetBytes(body, "message")
	if !message.Exists() {
		return c.String(http.StatusOK, msgOK)
	}

	chatID := message.Get("chat.id").Int()
	text := strings.TrimSpace(message.Get("text").String())
	if text == "" {
		return c.String(http.StatusOK, msgOK)
	}

	reply := h.dispatch(text)

	if err := h.replier.Reply(c.Request().Context(), chatID, reply); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"chat_id": chatID,
			"command": commandName(text),
			"error":   err,
		}).Warn("명령 응답 전송에 실패했습니다")
	}

	return c.String(http.StatusOK, msgOK)
}

// dispatch 명령어 접두사에 따라 응답 문구를 만듭니다.
func (h *Handler) dispatch(text string) string {
	switch {
	case strings.HasPrefix(text, cmdList):
		return h.listItems()
	case strings.HasPrefix(text, cmdAdd):
		return h.addItem(text)
	case strings.HasPrefix(text, cmdLast):
		return h.lastCheckTime()
	case strings.HasPrefix(text, cmdHelp):
		return msgHelp
	default:
		return msgUnknown
	}
}

func (h *Handler) listItems() string {
	items := h.list.Snapshot()
	if len(items) == 0 {
		return msgEmptyList
	}

	var sb strings.Builder
	sb.WriteString(msgListHeader)
	for _, item := range items {
		fmt.Fprintf(&sb, "%s%s\n%s\n\n", mark.ForNotified(item.Notified).WithSpace(), item.Title, item.URL)
	}

	return sb.String()
}

// addItem "/add 상품명 URL 비밀코드" 형식의 명령을 처리합니다.
// 상품명은 공백 없는 한 단어이고, 남은 부분은 모두 비밀 코드로 취급합니다.
func (h *Handler) addItem(text string) string {
	parts := strings.SplitN(text, " ", 4)
	if len(parts) < 4 {
		return msgUsage
	}

	title, url, code := parts[1], parts[2], parts[3]

	// 비밀 코드가 설정되지 않았으면 추가를 허용하지 않습니다.
	if h.secretCode == "" || code != h.secretCode {
		applog.WithComponentAndFields(component, applog.Fields{
			"url": url,
		}).Warn("상품 추가 거부: 비밀 코드가 일치하지 않습니다")

		return msgWrongSecret
	}

	err := h.list.Add(watchlist.Item{Title: title, URL: url})
	switch {
	case err == nil:
		applog.WithComponentAndFields(component, applog.Fields{
			"title": title,
			"url":   url,
		}).Info("추적 목록에 상품을 추가했습니다")

		return fmt.Sprintf(msgAddedFormat, title)

	case apperrors.Is(err, apperrors.Conflict):
		return msgDuplicate

	case apperrors.Is(err, apperrors.InvalidInput):
		return msgUsage

	default:
		applog.WithComponentAndFields(component, applog.Fields{
			"url":   url,
			"error": err,
		}).Error("추적 목록 저장에 실패했습니다")

		return msgSaveFailed
	}
}

func (h *Handler) lastCheckTime() string {
	value, ok, err := h.lastCheck.LoadLastCheck()
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("마지막 확인 시각을 읽지 못했습니다")
	}
	if err != nil || !ok {
		value = msgNoLastCheck
	}

	return msgLastCheck + value
}

// commandName 로그에 남길 명령어 부분만 잘라냅니다. 비밀 코드가 로그에 남지 않도록 합니다.
func commandName(text string) string {
	name, _, _ := strings.Cut(text, " ")
	return name
}
