package dataforseo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		Login:    "user",
		Password: "pass",
		BaseURL:  srv.URL,
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestKeywordMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, searchVolumePath, r.URL.Path)

		login, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "user", login)
		assert.Equal(t, "pass", pass)

		var tasks []searchVolumeTask
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, []string{"gaming laptop"}, tasks[0].Keywords)
		assert.Equal(t, DefaultLocationCode, tasks[0].LocationCode)
		assert.Equal(t, "en", tasks[0].LanguageCode)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status_code": 20000,
			"tasks": []map[string]any{{
				"status_code": 20000,
				"result": []map[string]any{{
					"keyword":       "gaming laptop",
					"search_volume": 25000,
					"cpc":           1.75,
					"competition":   0.9,
				}},
			}},
		})
	})

	metrics, err := c.KeywordMetrics(context.Background(), []string{"gaming laptop"}, 0, "")
	require.NoError(t, err)
	require.Contains(t, metrics, "gaming laptop")

	m := metrics["gaming laptop"]
	assert.Equal(t, 25000, m.SearchVolume)
	assert.InDelta(t, 1.75, m.CPC, 1e-9)
	assert.InDelta(t, 0.9, m.Competition, 1e-9)
}

func TestKeywordMetrics_ConfiguredLocationAndLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tasks []searchVolumeTask
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, 2826, tasks[0].LocationCode)
		assert.Equal(t, "de", tasks[0].LanguageCode)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status_code": 20000,
			"tasks":       []map[string]any{},
		})
	}))
	defer srv.Close()

	c, err := New(Config{
		Login:        "user",
		Password:     "pass",
		BaseURL:      srv.URL,
		LocationCode: 2826,
		LanguageCode: "de",
	})
	require.NoError(t, err)

	// Zero location and empty language fall back to the client config.
	_, err = c.KeywordMetrics(context.Background(), []string{"kw"}, 0, "")
	require.NoError(t, err)
}

func TestKeywordMetrics_EmptyInput(t *testing.T) {
	c, err := New(Config{Login: "u", Password: "p"})
	require.NoError(t, err)

	metrics, err := c.KeywordMetrics(context.Background(), nil, 0, "")
	require.NoError(t, err)
	assert.Empty(t, metrics)
}

func TestKeywordMetrics_ProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status_code":    40100,
			"status_message": "auth failed",
		})
	})

	_, err := c.KeywordMetrics(context.Background(), []string{"kw"}, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40100")
}

func TestKeywordMetrics_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.KeywordMetrics(context.Background(), []string{"kw"}, 0, "")
	assert.Error(t, err)
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{Login: "u"})
	assert.Error(t, err)

	_, err = New(Config{Password: "p"})
	assert.Error(t, err)
}
