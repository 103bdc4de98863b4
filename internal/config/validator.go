package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 형식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

	// 텔레그램이 secret_token에 허용하는 문자와 길이
	telegramWebhookSecretRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

	validate = newValidator()
)

// newValidator 커스텀 규칙이 등록된 Validator 인스턴스를 생성합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 구조체 필드명 대신 JSON 키 이름을 사용합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_bot_token' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	if err := v.RegisterValidation("telegram_webhook_secret", validateTelegramWebhookSecret); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'telegram_webhook_secret' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

func validateTelegramWebhookSecret(fl validator.FieldLevel) bool {
	return telegramWebhookSecretRegex.MatchString(fl.Field().String())
}

// checkStruct 구조체의 유효성을 검사하고 첫 번째 위반 항목을 설명하는 에러를 반환합니다.
func checkStruct(s any, contextName string) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			fieldErr := validationErrors[0]

			switch fieldErr.Tag() {
			case "required":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 필수 설정(%s)이 누락되었습니다", contextName, fieldErr.Namespace()))
			case "telegram_bot_token":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 텔레그램 봇 토큰(%s) 형식이 올바르지 않습니다", contextName, fieldErr.Namespace()))
			case "telegram_webhook_secret":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 웹훅 secret(%s)은 영문자, 숫자, '_', '-'로 된 1~256자여야 합니다", contextName, fieldErr.Namespace()))
			}

			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s=%s)", contextName, fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Param()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}
	return nil
}
