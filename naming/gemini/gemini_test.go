package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidatePayload(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
			},
		},
	}
}

func newTestNamer(t *testing.T, handler http.HandlerFunc) (*Namer, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n, err := NewNamer(Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)

	return n, srv
}

func TestNameCluster(t *testing.T) {
	n, _ := newTestNamer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "gemini-1.5-flash")

		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Contains(t, body.Contents[0].Parts[0].Text, "bitcoin price")

		_ = json.NewEncoder(w).Encode(candidatePayload(`"Cryptocurrency Prices."`))
	})

	label, err := n.NameCluster(context.Background(), []string{"bitcoin price", "ethereum price"})
	require.NoError(t, err)
	assert.Equal(t, "Cryptocurrency Prices", label)
}

func TestNameCluster_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	n, _ := newTestNamer(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(candidatePayload("Gaming Laptops"))
	})

	label, err := n.NameCluster(context.Background(), []string{"gaming laptop deals"})
	require.NoError(t, err)
	assert.Equal(t, "Gaming Laptops", label)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNameCluster_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32

	n, _ := newTestNamer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := n.NameCluster(context.Background(), []string{"kw"})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNameCluster_EmptyInput(t *testing.T) {
	n, err := NewNamer(Config{APIKey: "k"})
	require.NoError(t, err)

	_, err = n.NameCluster(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewNamer_RequiresAPIKey(t *testing.T) {
	_, err := NewNamer(Config{})
	assert.Error(t, err)
}
