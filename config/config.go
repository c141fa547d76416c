// Package config loads the application configuration: a YAML file for
// tunables and the process environment for credentials. A .env file in
// the working directory is folded into the environment when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	BaseURL   string `yaml:"base_url"`
}

// NamingConfig configures the cluster-naming provider.
type NamingConfig struct {
	// Provider is "gemini" or "openai".
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// ClusteringConfig configures the clustering engine.
type ClusteringConfig struct {
	// Seed fixes clustering randomness; 0 means time-seeded.
	Seed          int64 `yaml:"seed"`
	MaxIterations int   `yaml:"max_iterations"`
}

// IndexConfig configures the keyword index.
type IndexConfig struct {
	// SnapshotPath is loaded at startup when it exists and written on
	// shutdown. Empty disables snapshots.
	SnapshotPath string `yaml:"snapshot_path"`
}

// ProviderLimits throttles outbound provider calls.
type ProviderLimits struct {
	MaxConcurrentCalls int     `yaml:"max_concurrent_calls"`
	CallsPerSecond     float64 `yaml:"calls_per_second"`
	Burst              int     `yaml:"burst"`
}

// DataForSEOConfig configures keyword metrics lookups. Credentials come
// from the environment, not the file.
type DataForSEOConfig struct {
	LocationCode int    `yaml:"location_code"`
	LanguageCode string `yaml:"language_code"`
}

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Naming     NamingConfig     `yaml:"naming"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Index      IndexConfig      `yaml:"index"`
	Limits     ProviderLimits   `yaml:"limits"`
	DataForSEO DataForSEOConfig `yaml:"dataforseo"`
}

// Secrets are credentials, read from the environment only so they never
// end up in a config file.
type Secrets struct {
	OpenAIAPIKey       string
	GeminiAPIKey       string
	DataForSEOLogin    string
	DataForSEOPassword string
}

// Load reads the YAML config at path. A missing file yields defaults;
// an empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadSecrets folds an optional .env file into the environment and
// reads the provider credentials. Missing variables stay empty; callers
// decide which providers are required.
func LoadSecrets() Secrets {
	// Absence of a .env file is the normal production case.
	_ = godotenv.Load()

	return Secrets{
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		DataForSEOLogin:    os.Getenv("DATAFORSEO_LOGIN"),
		DataForSEOPassword: os.Getenv("DATAFORSEO_PASSWORD"),
	}
}

func defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Naming.Provider == "" {
		cfg.Naming.Provider = "gemini"
	}
	if cfg.Naming.Timeout == 0 {
		cfg.Naming.Timeout = 10 * time.Second
	}
	if cfg.Naming.Concurrency == 0 {
		cfg.Naming.Concurrency = 4
	}

	if cfg.Clustering.MaxIterations == 0 {
		cfg.Clustering.MaxIterations = 100
	}

	if cfg.Limits.MaxConcurrentCalls == 0 {
		cfg.Limits.MaxConcurrentCalls = 8
	}
	if cfg.Limits.CallsPerSecond == 0 {
		cfg.Limits.CallsPerSecond = 10
	}
	if cfg.Limits.Burst == 0 {
		cfg.Limits.Burst = 5
	}

	if cfg.DataForSEO.LocationCode == 0 {
		cfg.DataForSEO.LocationCode = 2840
	}
	if cfg.DataForSEO.LanguageCode == "" {
		cfg.DataForSEO.LanguageCode = "en"
	}
}
