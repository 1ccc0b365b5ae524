package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"ASSISTANT_API_URL", "ASSISTANT_LOG_MODE", "ASSISTANT_LOG_FILE", "ASSISTANT_WATCH_DIR", "PORT", "STUB_DATA_DIR"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, []string{"application/pdf"}, cfg.Upload.AcceptedMediaTypes)
	assert.Equal(t, 200*time.Millisecond, cfg.Upload.ProgressInterval)
	assert.Equal(t, 10, cfg.Upload.ProgressStep)
	assert.Equal(t, 90, cfg.Upload.ProgressCap)
	assert.Equal(t, 2*time.Second, cfg.Upload.DisplayDelay)
	assert.Equal(t, 3*time.Second, cfg.Notifications.Duration)
}

func TestLoadConfig_CreatesDefaultFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "assistant.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, filepath.Join(dir, "drop"), cfg.Watch.Directory)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfig_ReadsYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "assistant.yaml")
	yml := `
api:
  base_url: http://backend:9000
  timeout: 10s
upload:
  progress_interval: 50ms
  display_delay: 1s
stub:
  port: 9100
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Upload.ProgressInterval)
	assert.Equal(t, time.Second, cfg.Upload.DisplayDelay)
	// untouched keys keep defaults
	assert.Equal(t, 90, cfg.Upload.ProgressCap)
	assert.Equal(t, 9100, cfg.Stub.Port)
	assert.Equal(t, "127.0.0.1:9100", cfg.GetStubAddr())
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("ASSISTANT_API_URL", "http://override:8000")
	t.Setenv("PORT", "8123")
	t.Setenv("STUB_DATA_DIR", "/srv/manuals")
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := LoadConfig(filepath.Join(dir, "assistant.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.API.BaseURL)
	assert.Equal(t, 8123, cfg.Stub.Port)
	assert.Equal(t, "/srv/manuals", cfg.Stub.DataDirectory)
	assert.False(t, cfg.Stub.APIKeyConfigured)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"relative url", func(c *AppConfig) { c.API.BaseURL = "localhost" }},
		{"zero timeout", func(c *AppConfig) { c.API.Timeout = 0 }},
		{"no media types", func(c *AppConfig) { c.Upload.AcceptedMediaTypes = nil }},
		{"zero interval", func(c *AppConfig) { c.Upload.ProgressInterval = 0 }},
		{"zero step", func(c *AppConfig) { c.Upload.ProgressStep = 0 }},
		{"cap at 100", func(c *AppConfig) { c.Upload.ProgressCap = 100 }},
		{"negative delay", func(c *AppConfig) { c.Upload.DisplayDelay = -time.Second }},
		{"zero notification", func(c *AppConfig) { c.Notifications.Duration = 0 }},
		{"bad port", func(c *AppConfig) { c.Stub.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Stub.DataDirectory = filepath.Join(dir, "manuals")
	cfg.Transcript.Path = filepath.Join(dir, "state", "transcript.msgpack")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Stub.DataDirectory)
	assert.DirExists(t, filepath.Join(dir, "state"))
}
