package registry

import (
	"testing"

	"github.com/darkkaiser/stock-tracker/internal/config"
	apperrors "github.com/darkkaiser/stock-tracker/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStores() map[string]config.StoreConfig {
	return map[string]config.StoreConfig{
		"Rozetka": {
			BaseURL:           "https://rozetka.com.ua",
			TitleSelector:     "h1.product__title",
			BuyButtonSelector: "button.buy-button",
			BuyButtonText:     "Купити",
		},
		"allo": {
			BaseURL:           "https://allo.ua",
			TitleSelector:     "h1",
			BuyButtonSelector: ".v-btn--cart",
			BuyButtonText:     "Купити",
		},
		"shopLocal": {
			BaseURL:           "http://127.0.0.1:8080",
			TitleSelector:     ".title",
			BuyButtonSelector: ".buy",
			BuyButtonText:     "Buy",
		},
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	r, err := New(newStores())
	require.NoError(t, err)
	require.Equal(t, 3, r.Len())

	var ids []string
	for _, p := range r.Profiles() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"allo", "rozetka", "shop_local"}, ids, "ID는 snake_case로 정규화되고 정렬되어야 합니다")
}

func TestNew_DuplicateID(t *testing.T) {
	t.Parallel()

	stores := newStores()
	stores["shop_local"] = stores["shopLocal"]

	_, err := New(stores)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	assert.Contains(t, err.Error(), "shop_local")
}

func TestResolve(t *testing.T) {
	t.Parallel()

	r, err := New(newStores())
	require.NoError(t, err)

	tests := []struct {
		name       string
		url        string
		expectedID string
		found      bool
	}{
		{"정확한 도메인", "https://rozetka.com.ua/ua/product/123/", "rozetka", true},
		{"쿼리 포함", "https://allo.ua/ua/item.html?color=black", "allo", true},
		{"포트 포함 호스트", "http://127.0.0.1:8080/p/1", "shop_local", true},
		{"등록되지 않은 도메인", "https://example.com/p/1", "", false},
		{"서브도메인은 일치하지 않음", "https://m.rozetka.com.ua/p/1", "", false},
		{"호스트 없음", "not a url", "", false},
		{"빈 문자열", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, ok := r.Resolve(tt.url)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				require.NotNil(t, p)
				assert.Equal(t, tt.expectedID, p.ID)
			} else {
				assert.Nil(t, p)
			}
		})
	}
}

func TestResolve_AmbiguousUsesFirstByID(t *testing.T) {
	t.Parallel()

	r, err := New(map[string]config.StoreConfig{
		"zeta":  {BaseURL: "https://shop.example", TitleSelector: "h1", BuyButtonSelector: ".b", BuyButtonText: "Z"},
		"alpha": {BaseURL: "https://shop.example/ua", TitleSelector: "h1", BuyButtonSelector: ".b", BuyButtonText: "A"},
	})
	require.NoError(t, err)

	p, ok := r.Resolve("https://shop.example/p/1")
	require.True(t, ok)
	assert.Equal(t, "alpha", p.ID)
	assert.Equal(t, "A", p.BuyButtonText)
}
