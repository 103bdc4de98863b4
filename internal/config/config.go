package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/darkkaiser/stock-tracker/pkg/cronx"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션 이름
	AppName string = "stock-tracker"

	// DefaultFilename 기본 설정 파일 이름
	DefaultFilename = "config.json"

	// DefaultTelegramFilename 텔레그램 접속 정보만 분리해 두는 설정 파일 이름
	DefaultTelegramFilename = "telegram_config.json"

	// DefaultCheckInterval 사이클 사이의 기본 대기 시간(초)
	DefaultCheckInterval = 1200

	// DefaultFetchTimeout 페이지 요청 하나당 기본 제한 시간
	DefaultFetchTimeout = 10 * time.Second

	// DefaultUserAgent 모든 페이지 요청에 사용하는 고정 User-Agent
	DefaultUserAgent = "Mozilla/5.0"

	DefaultProductsFile  = "products.json"
	DefaultLastCheckFile = "last_check.txt"

	DefaultBotListenPort = 8080

	// envPrefix 일반 설정을 환경 변수로 덮어쓸 때 사용하는 접두사
	// 예: STOCK_TRACKER_FETCH__MAX_CONCURRENCY -> fetch.max_concurrency
	envPrefix = "STOCK_TRACKER_"
)

// envAliases 접두사 없이 사용하는 환경 변수와 설정 키의 대응표입니다.
// GitHub Actions 등 외부 스케줄러에서 주입하는 이름을 그대로 지원합니다.
var envAliases = map[string]string{
	"TELEGRAM_TOKEN":   "telegram.token",
	"TELEGRAM_CHAT_ID": "telegram.chat_id",
	"RUN_ONCE":         "run_once",
	"CHECK_INTERVAL":   "check_interval",
	"BOT_SECRET_CODE":  "bot.secret_code",
}

// AppConfig 애플리케이션 전체 설정입니다.
type AppConfig struct {
	Debug   bool `json:"debug"`
	RunOnce bool `json:"run_once"`

	// CheckInterval 사이클 사이의 대기 시간(초)
	CheckInterval int `json:"check_interval" validate:"min=1"`

	// Schedule 지정된 경우 CheckInterval 대신 사용할 cron 표현식 (6필드 또는 Descriptor)
	Schedule string `json:"schedule"`

	Stores   map[string]StoreConfig `json:"stores"`
	Fetch    FetchConfig            `json:"fetch"`
	Storage  StorageConfig          `json:"storage"`
	Telegram TelegramConfig         `json:"telegram"`
	Bot      BotConfig              `json:"bot"`
}

// StoreConfig 스토어 하나의 추출 규칙입니다.
type StoreConfig struct {
	BaseURL           string `json:"base_url" validate:"required"`
	TitleSelector     string `json:"title_selector" validate:"required"`
	BuyButtonSelector string `json:"buy_button_selector" validate:"required"`
	BuyButtonText     string `json:"buy_button_text" validate:"required"`
}

// FetchConfig 페이지 요청 설정입니다.
type FetchConfig struct {
	Timeout   time.Duration `json:"timeout" validate:"gt=0"`
	UserAgent string        `json:"user_agent" validate:"required"`

	// MaxConcurrency 동시에 수행할 최대 요청 수 (0: 제한 없음)
	MaxConcurrency int `json:"max_concurrency" validate:"min=0"`

	// MaxBodyBytes 응답 본문 최대 크기 (0: 기본값 10MB, -1: 제한 없음)
	MaxBodyBytes int64 `json:"max_body_bytes" validate:"min=-1"`
}

// StorageConfig 상태 파일 경로 설정입니다.
type StorageConfig struct {
	ProductsFile  string `json:"products_file" validate:"required"`
	LastCheckFile string `json:"last_check_file" validate:"required"`
}

// TelegramConfig 알림을 전송할 텔레그램 봇 설정입니다.
//
// 환경 변수(TELEGRAM_TOKEN, TELEGRAM_CHAT_ID)는 키 단위로 파일 값을 덮어씁니다.
// 한쪽만 환경 변수로 지정하면 나머지는 파일 값을 사용합니다.
type TelegramConfig struct {
	Token  string `json:"token" validate:"required,telegram_bot_token"`
	ChatID int64  `json:"chat_id" validate:"required"`

	// APIEndpoint 봇 API 주소 형식 (빈 값: https://api.telegram.org/bot%s/%s)
	// 토큰과 메서드 이름 자리에 %s가 하나씩 있어야 합니다.
	APIEndpoint string `json:"api_endpoint"`
}

// BotConfig 상품 관리용 웹훅 봇 설정입니다.
type BotConfig struct {
	Enabled    bool   `json:"enabled"`
	ListenPort int    `json:"listen_port" validate:"min=1,max=65535"`
	SecretCode string `json:"secret_code"`

	// WebhookSecret setWebhook의 secret_token으로 등록한 값
	// 지정하면 X-Telegram-Bot-Api-Secret-Token 헤더가 일치하지 않는 웹훅 요청을 거부합니다.
	WebhookSecret string `json:"webhook_secret" validate:"omitempty,telegram_webhook_secret"`

	RateLimitPerSecond int `json:"rate_limit_per_second" validate:"min=1"`
	RateLimitBurst     int `json:"rate_limit_burst" validate:"min=1"`
}

// Interval CheckInterval을 time.Duration으로 반환합니다.
func (c *AppConfig) Interval() time.Duration {
	return time.Duration(c.CheckInterval) * time.Second
}

// ScheduleSpec 스케줄러에 등록할 cron 표현식을 반환합니다.
func (c *AppConfig) ScheduleSpec() string {
	if s := strings.TrimSpace(c.Schedule); s != "" {
		return s
	}
	return cronx.Every(c.Interval())
}

// StoreIDs 스토어 식별자를 정렬하여 반환합니다.
func (c *AppConfig) StoreIDs() []string {
	ids := make([]string, 0, len(c.Stores))
	for id := range c.Stores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *AppConfig) validate() error {
	if err := checkStruct(c, "AppConfig"); err != nil {
		return err
	}

	if len(c.Stores) == 0 {
		return apperrors.New(apperrors.InvalidInput, "스토어 설정(stores)이 비어 있습니다")
	}
	for _, id := range c.StoreIDs() {
		store := c.Stores[id]
		if err := checkStruct(&store, fmt.Sprintf("Store['%s']", id)); err != nil {
			return err
		}
	}

	if strings.TrimSpace(c.Schedule) != "" {
		if err := cronx.Validate(c.Schedule); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, "스케줄(schedule) 설정이 유효하지 않습니다")
		}
	}

	if c.Telegram.APIEndpoint != "" && strings.Count(c.Telegram.APIEndpoint, "%s") != 2 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("텔레그램 API 주소(telegram.api_endpoint) 형식이 올바르지 않습니다: '%s'", c.Telegram.APIEndpoint))
	}

	if c.Bot.Enabled && strings.TrimSpace(c.Bot.SecretCode) == "" {
		return apperrors.New(apperrors.InvalidInput, "봇을 활성화하려면 비밀 코드(bot.secret_code 또는 BOT_SECRET_CODE)가 필요합니다")
	}

	return nil
}

// VerifyRecommendations 동작에는 문제가 없지만 권장되지 않는 설정에 대한 경고 목록을 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if strings.TrimSpace(c.Schedule) == "" && c.CheckInterval < 60 {
		warnings = append(warnings, fmt.Sprintf("확인 주기(check_interval)가 %d초로 매우 짧습니다. 대상 사이트에서 차단될 수 있습니다", c.CheckInterval))
	}

	if c.Fetch.Timeout > c.Interval() && strings.TrimSpace(c.Schedule) == "" {
		warnings = append(warnings, fmt.Sprintf("요청 제한 시간(%s)이 확인 주기(%s)보다 깁니다", c.Fetch.Timeout, c.Interval()))
	}

	if c.Bot.Enabled && c.Bot.WebhookSecret == "" {
		warnings = append(warnings, "웹훅 secret(bot.webhook_secret)이 설정되지 않아 누구나 웹훅 주소로 명령을 보낼 수 있습니다")
	}

	if c.Bot.Enabled && c.Bot.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(%d)를 사용하도록 설정되었습니다. 관리자 권한이 필요할 수 있습니다", c.Bot.ListenPort))
	}

	return warnings
}

// LoadWithFiles 설정 파일들을 읽어 AppConfig를 생성합니다.
//
// 우선순위(낮음 -> 높음): 기본값 -> 설정 파일 -> 텔레그램 설정 파일 -> 환경 변수
//
// 설정 파일이 없으면 에러를 반환하지만, 텔레그램 설정 파일은 선택 사항입니다.
// 어느 경로로도 텔레그램 토큰과 채팅 ID가 채워지지 않으면 검증 단계에서 실패합니다.
func LoadWithFiles(filename, telegramFilename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값
	if err := k.Load(confmap.Provider(map[string]any{
		"check_interval":            DefaultCheckInterval,
		"fetch.timeout":             DefaultFetchTimeout.String(),
		"fetch.user_agent":          DefaultUserAgent,
		"fetch.max_concurrency":     0,
		"fetch.max_body_bytes":      0,
		"storage.products_file":     DefaultProductsFile,
		"storage.last_check_file":   DefaultLastCheckFile,
		"bot.listen_port":           DefaultBotListenPort,
		"bot.rate_limit_per_second": 5,
		"bot.rate_limit_burst":      10,
	}, "."), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. 설정 파일
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 텔레그램 설정 파일 (선택)
	if telegramFilename != "" {
		if err := loadTelegramFile(k, telegramFilename); err != nil {
			return nil, err
		}
	}

	// 4. 환경 변수
	if err := k.Load(env.Provider("", ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 5. 구조체 언마샬링 (정의되지 않은 키는 에러)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 6. 유효성 검사
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

// loadTelegramFile {token, chat_id} 형식의 파일을 읽어 telegram 키 아래에 병합합니다.
func loadTelegramFile(k *koanf.Koanf, filename string) error {
	if _, err := os.Stat(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.System, fmt.Sprintf("텔레그램 설정 파일에 접근할 수 없습니다: '%s'", filename))
	}

	tk := koanf.New(".")
	if err := tk.Load(file.Provider(filename), json.Parser()); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("텔레그램 설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	if err := k.MergeAt(tk, "telegram"); err != nil {
		return apperrors.Wrap(err, apperrors.System, "텔레그램 설정 병합에 실패했습니다")
	}

	return nil
}

// normalizeEnvKey 환경 변수 이름을 설정 키로 변환합니다. 관련 없는 변수는 빈 문자열을 반환하여 무시합니다.
func normalizeEnvKey(s string) string {
	if key, ok := envAliases[s]; ok {
		return key
	}

	if !strings.HasPrefix(s, envPrefix) {
		return ""
	}

	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
