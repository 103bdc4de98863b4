package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/darkkaiser/stock-tracker/internal/config"
	"github.com/darkkaiser/stock-tracker/internal/service/tracker/watchlist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `{
	"stores": {
		"rozetka": {
			"base_url": "https://rozetka.com.ua",
			"title_selector": "h1.title",
			"buy_button_selector": "button.buy",
			"buy_button_text": "Купити"
		}
	},
	"storage": {
		"products_file": "products.json",
		"last_check_file": "last_check.txt"
	}
}`

// setupWorkDir 임시 디렉터리를 작업 디렉터리로 지정하고 설정 파일을 만듭니다.
// 로그 파일도 이 디렉터리 아래에 생성됩니다.
func setupWorkDir(t *testing.T, files map[string]string) {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestAppMetadata(t *testing.T) {
	assert.Equal(t, "stock-tracker", config.AppName)
	assert.Equal(t, "config.json", config.DefaultFilename)
	assert.Equal(t, "telegram_config.json", config.DefaultTelegramFilename)
}

func TestRun_MissingConfigFile(t *testing.T) {
	setupWorkDir(t, nil)

	var stdout, stderr bytes.Buffer
	code := run(config.DefaultFilename, config.DefaultTelegramFilename, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "[FATAL] 환경설정 로드 실패")
	assert.Empty(t, stdout.String())
}

func TestRun_MissingTelegramConfigIsFatal(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	setupWorkDir(t, map[string]string{
		"config.json": testConfig,
	})

	var stdout, stderr bytes.Buffer
	code := run(config.DefaultFilename, config.DefaultTelegramFilename, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "telegram.token")

	// 페이지 요청 전에 종료되었으므로 상태 파일이 생성되지 않아야 합니다.
	assert.NoFileExists(t, "last_check.txt")
}

func TestRun_CorruptWatchlistIsFatal(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("RUN_ONCE", "true")
	setupWorkDir(t, map[string]string{
		"config.json":   testConfig,
		"products.json": `[{"url": `,
	})

	var stdout, stderr bytes.Buffer
	code := run(config.DefaultFilename, config.DefaultTelegramFilename, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "developed by DarkKaiser")
	assert.NoFileExists(t, "last_check.txt")
}

func TestRun_RunOnceNotifiesAndExits(t *testing.T) {
	const token = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

	// 상품 페이지: 구매 버튼이 있는 재고 상태
	shop := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><h1 class="title">Кавоварка Delonghi</h1><button class="buy"> Купити </button></body></html>`)
	}))
	defer shop.Close()

	// 텔레그램 봇 API: getMe와 sendMessage만 응답
	var sent atomic.Int32
	var sentText atomic.Value
	botAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/bot" + token + "/getMe":
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"stock","username":"stock_tracker_bot"}}`)
		case "/bot" + token + "/sendMessage":
			_ = r.ParseForm()
			sent.Add(1)
			sentText.Store(r.FormValue("text"))
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	defer botAPI.Close()

	productURL := shop.URL + "/p/1"
	setupWorkDir(t, map[string]string{
		"config.json":   strings.Replace(testConfig, "https://rozetka.com.ua", shop.URL, 1),
		"products.json": `[{"url": "` + productURL + `", "title": "", "notified": false}]`,
	})

	t.Setenv("TELEGRAM_TOKEN", token)
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("RUN_ONCE", "true")
	t.Setenv("STOCK_TRACKER_TELEGRAM__API_ENDPOINT", botAPI.URL+"/bot%s/%s")

	var stdout, stderr bytes.Buffer
	code := run(config.DefaultFilename, config.DefaultTelegramFilename, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stderr.String())

	// 알림은 한 번만 전송되어야 합니다.
	assert.Equal(t, int32(1), sent.Load())
	assert.Equal(t, "🟢 Товар в наявності! Кавоварка Delonghi\n"+productURL, sentText.Load())

	// 사이클이 끝났으므로 마지막 확인 시각이 기록되어야 합니다.
	assert.FileExists(t, "last_check.txt")

	data, err := os.ReadFile("products.json")
	require.NoError(t, err)

	var items []watchlist.Item
	require.NoError(t, json.Unmarshal(data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, productURL, items[0].URL)
	assert.True(t, items[0].Notified)
}
