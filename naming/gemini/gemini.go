// Package gemini implements the cluster-naming provider on the Google
// Gemini generateContent REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orbiseo/orbiseo/naming"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "gemini-1.5-flash"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	maxLabelWords  = 5

	promptPrefix = "Give a short 2-5 word topic label for this group of search " +
		"keywords. Reply with the label only, no quotes, no explanation.\n\nKeywords: "
)

// Namer produces cluster labels via the Gemini REST API.
type Namer struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// Config configures the Gemini naming client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewNamer creates a new Namer using the provided configuration.
func NewNamer(cfg Config) (*Namer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing Gemini API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	t := cfg.Timeout
	if t == 0 {
		t = defaultTimeout
	}

	return &Namer{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: t},
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NameCluster returns a short label describing the given keywords.
func (n *Namer) NameCluster(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", fmt.Errorf("no keywords provided")
	}

	body := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: promptPrefix + strings.Join(keywords, ", ")}}},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", n.baseURL, n.model, n.apiKey)

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay(attempt)):
			}
		}

		label, retryable, err := n.doRequest(ctx, url, data)
		if err == nil {
			return label, nil
		}

		lastErr = err
		if !retryable {
			break
		}
	}

	return "", lastErr
}

func (n *Namer) doRequest(ctx context.Context, url string, data []byte) (label string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("gemini generateContent failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("gemini generateContent failed: %s", resp.Status)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty candidates in response")
	}

	label = naming.SanitizeLabel(parsed.Candidates[0].Content.Parts[0].Text, maxLabelWords)
	if label == "" {
		return "", false, fmt.Errorf("empty label returned")
	}

	return label, false, nil
}

func retryDelay(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt-1)) * time.Second
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}

// Interface guard.
var _ naming.Namer = (*Namer)(nil)
