package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()

	userAgents := &sync.Map{}

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		userAgents.Store(r.URL.Path, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><h1 class="title">Ноутбук</h1><button class="buy">Купити</button></html>`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 4096))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, userAgents
}

func TestClient_FetchAll(t *testing.T) {
	t.Parallel()

	server, userAgents := newTestServer(t)

	c := New(Config{
		Timeout:      300 * time.Millisecond,
		UserAgent:    "Mozilla/5.0",
		MaxBodyBytes: 1024,
	})
	defer c.Close()

	urls := []string{
		server.URL + "/ok",
		server.URL + "/missing",
		server.URL + "/down",
		server.URL + "/slow",
		server.URL + "/big",
		"http://127.0.0.1:0/unreachable",
	}

	pages := c.FetchAll(context.Background(), urls)
	require.Len(t, pages, len(urls))

	require.NotNil(t, pages[0], "정상 응답은 페이지를 반환해야 합니다")
	assert.Equal(t, urls[0], pages[0].URL)
	assert.Contains(t, string(pages[0].Body), "Купити")
	assert.Equal(t, "text/html; charset=utf-8", pages[0].ContentType)

	for i := 1; i < len(urls); i++ {
		assert.Nil(t, pages[i], "실패한 요청의 자리는 nil이어야 합니다: %s", urls[i])
	}

	ua, ok := userAgents.Load("/ok")
	require.True(t, ok)
	assert.Equal(t, "Mozilla/5.0", ua)
}

func TestClient_FetchAll_Empty(t *testing.T) {
	t.Parallel()

	c := New(Config{Timeout: time.Second, UserAgent: "Mozilla/5.0"})
	defer c.Close()

	assert.Empty(t, c.FetchAll(context.Background(), nil))
}

func TestClient_FetchAll_MaxConcurrency(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	c := New(Config{Timeout: 2 * time.Second, UserAgent: "Mozilla/5.0", MaxConcurrency: 2})
	defer c.Close()

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/p/%d", server.URL, i)
	}

	pages := c.FetchAll(context.Background(), urls)
	for i, p := range pages {
		assert.NotNil(t, p, "index %d", i)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestClient_FetchAll_CanceledContext(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	c := New(Config{Timeout: time.Second, UserAgent: "Mozilla/5.0"})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pages := c.FetchAll(ctx, []string{server.URL + "/ok", server.URL + "/ok"})
	assert.Equal(t, []*Page{nil, nil}, pages)
}

func TestClient_Fetch_ErrorTypes(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)

	c := New(Config{Timeout: time.Second, UserAgent: "Mozilla/5.0", MaxBodyBytes: 1024})
	defer c.Close()

	tests := []struct {
		path    string
		errType apperrors.ErrorType
	}{
		{"/missing", apperrors.ExecutionFailed},
		{"/down", apperrors.Unavailable},
		{"/big", apperrors.ExecutionFailed},
	}

	for _, tt := range tests {
		_, err := c.Fetch(context.Background(), server.URL+tt.path)
		require.Error(t, err, tt.path)
		assert.Equal(t, tt.errType, apperrors.UnderlyingType(err), "%s: %v", tt.path, err)
	}
}
