// Package dataforseo implements a client for the DataForSEO keyword
// metrics API. It enriches keyword records with search volume, CPC and
// competition data; callers are expected to degrade gracefully when the
// provider is unavailable.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.dataforseo.com/v3"
	defaultTimeout = 30 * time.Second

	// DefaultLocationCode is the Google Ads location code for the
	// United States.
	DefaultLocationCode = 2840

	// DefaultLanguageCode is the Google Ads language code for English.
	DefaultLanguageCode = "en"

	searchVolumePath = "/keywords_data/google_ads/search_volume/live"
)

// Metrics are the per-keyword numbers returned by the provider.
type Metrics struct {
	Keyword      string  `json:"keyword"`
	SearchVolume int     `json:"search_volume"`
	CPC          float64 `json:"cpc"`
	Competition  float64 `json:"competition"`
}

// Client calls the DataForSEO REST API with basic auth.
type Client struct {
	baseURL      string
	login        string
	password     string
	locationCode int
	languageCode string
	client       *http.Client
}

// Config configures the Client. LocationCode and LanguageCode are the
// defaults applied to lookups that do not specify their own.
type Config struct {
	Login        string
	Password     string
	BaseURL      string
	LocationCode int
	LanguageCode string
	Timeout      time.Duration
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.Login == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing DataForSEO credentials")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.LocationCode == 0 {
		cfg.LocationCode = DefaultLocationCode
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultLanguageCode
	}
	t := cfg.Timeout
	if t == 0 {
		t = defaultTimeout
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		login:        cfg.Login,
		password:     cfg.Password,
		locationCode: cfg.LocationCode,
		languageCode: cfg.LanguageCode,
		client:       &http.Client{Timeout: t},
	}, nil
}

type searchVolumeTask struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code"`
	LanguageCode string   `json:"language_code"`
}

type searchVolumeResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		StatusCode int `json:"status_code"`
		Result     []struct {
			Keyword      string  `json:"keyword"`
			SearchVolume int     `json:"search_volume"`
			CPC          float64 `json:"cpc"`
			Competition  float64 `json:"competition"`
		} `json:"result"`
	} `json:"tasks"`
}

// KeywordMetrics looks up search volume metrics for keywords, keyed by
// keyword. Keywords unknown to the provider are absent from the result.
// A zero locationCode or empty languageCode falls back to the client's
// configured defaults.
func (c *Client) KeywordMetrics(ctx context.Context, keywords []string, locationCode int, languageCode string) (map[string]Metrics, error) {
	if len(keywords) == 0 {
		return map[string]Metrics{}, nil
	}
	if locationCode == 0 {
		locationCode = c.locationCode
	}
	if languageCode == "" {
		languageCode = c.languageCode
	}

	payload, err := json.Marshal([]searchVolumeTask{{
		Keywords:     keywords,
		LocationCode: locationCode,
		LanguageCode: languageCode,
	}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchVolumePath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataforseo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataforseo request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed searchVolumeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode dataforseo response: %w", err)
	}
	if parsed.StatusCode != 20000 {
		return nil, fmt.Errorf("dataforseo error %d: %s", parsed.StatusCode, parsed.StatusMessage)
	}

	out := make(map[string]Metrics)
	for _, task := range parsed.Tasks {
		for _, r := range task.Result {
			if r.Keyword == "" {
				continue
			}
			out[r.Keyword] = Metrics{
				Keyword:      r.Keyword,
				SearchVolume: r.SearchVolume,
				CPC:          r.CPC,
				Competition:  r.Competition,
			}
		}
	}

	return out, nil
}
