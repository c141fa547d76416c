package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "gemini", cfg.Naming.Provider)
	assert.Equal(t, 100, cfg.Clustering.MaxIterations)
	assert.Equal(t, 2840, cfg.DataForSEO.LocationCode)
	assert.Equal(t, "en", cfg.DataForSEO.LanguageCode)
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  read_timeout: 5s
naming:
  provider: openai
  concurrency: 2
index:
  snapshot_path: /var/lib/orbiseo/keywords.orb
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "openai", cfg.Naming.Provider)
	assert.Equal(t, 2, cfg.Naming.Concurrency)
	assert.Equal(t, "/var/lib/orbiseo/keywords.orb", cfg.Index.SnapshotPath)

	// Unset fields keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Naming.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("DATAFORSEO_LOGIN", "login")
	t.Setenv("DATAFORSEO_PASSWORD", "pw")

	s := LoadSecrets()
	assert.Equal(t, "sk-test", s.OpenAIAPIKey)
	assert.Equal(t, "g-test", s.GeminiAPIKey)
	assert.Equal(t, "login", s.DataForSEOLogin)
	assert.Equal(t, "pw", s.DataForSEOPassword)
}
