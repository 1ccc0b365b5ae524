// Package config provides YAML-based configuration for the assistant client
// and the local stub backend.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	API           APIConfig          `yaml:"api"`
	Upload        UploadConfig       `yaml:"upload"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Watch         WatchConfig        `yaml:"watch"`
	Transcript    TranscriptConfig   `yaml:"transcript"`
	Stub          StubConfig         `yaml:"stub"`
}

// APIConfig points the client at the question-answering service
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// UploadConfig tunes the upload coordinator
type UploadConfig struct {
	AcceptedMediaTypes []string      `yaml:"accepted_media_types"`
	ProgressInterval   time.Duration `yaml:"progress_interval"`
	ProgressStep       int           `yaml:"progress_step"`
	ProgressCap        int           `yaml:"progress_cap"`
	DisplayDelay       time.Duration `yaml:"display_delay"`
}

// NotificationConfig controls how long banners stay visible
type NotificationConfig struct {
	Duration time.Duration `yaml:"duration"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Mode  string `yaml:"mode"`  // development|production
	Level string `yaml:"level"` // debug|info|warn|error
	File  string `yaml:"file"`  // empty = stderr (no-op in the terminal UI)
}

// WatchConfig configures the drop folder
type WatchConfig struct {
	Directory string        `yaml:"directory"`
	Debounce  time.Duration `yaml:"debounce"`
}

// TranscriptConfig controls conversation persistence in the terminal UI
type TranscriptConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// StubConfig contains settings for the local stub backend
type StubConfig struct {
	Port             int    `yaml:"port"`
	BindAddress      string `yaml:"bind_address"`
	DataDirectory    string `yaml:"data_directory"`
	AnswersFile      string `yaml:"answers_file"`
	BodyLimit        string `yaml:"body_limit"`
	APIKeyConfigured bool   `yaml:"api_key_configured"`
	EnableCORS       bool   `yaml:"enable_cors"`
	RequestLogging   bool   `yaml:"request_logging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 2 * time.Minute,
		},
		Upload: UploadConfig{
			AcceptedMediaTypes: []string{"application/pdf"},
			ProgressInterval:   200 * time.Millisecond,
			ProgressStep:       10,
			ProgressCap:        90,
			DisplayDelay:       2 * time.Second,
		},
		Notifications: NotificationConfig{
			Duration: 3 * time.Second,
		},
		Logging: LoggingConfig{
			Mode:  "development",
			Level: "info",
		},
		Watch: WatchConfig{
			Directory: "./drop",
			Debounce:  500 * time.Millisecond,
		},
		Transcript: TranscriptConfig{
			Enabled: true,
			Path:    "./data/transcript.msgpack",
		},
		Stub: StubConfig{
			Port:             8000,
			BindAddress:      "127.0.0.1",
			DataDirectory:    "./data/manuals",
			BodyLimit:        "50M",
			APIKeyConfigured: true,
			EnableCORS:       true,
			RequestLogging:   true,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// created with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	_ = godotenv.Load()

	config := DefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvironmentOverrides()
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Car Manual Assistant configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, output...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *AppConfig) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if len(c.Upload.AcceptedMediaTypes) == 0 {
		return fmt.Errorf("upload.accepted_media_types must not be empty")
	}
	if c.Upload.ProgressInterval <= 0 {
		return fmt.Errorf("upload.progress_interval must be positive")
	}
	if c.Upload.ProgressStep <= 0 {
		return fmt.Errorf("upload.progress_step must be positive")
	}
	if c.Upload.ProgressCap <= 0 || c.Upload.ProgressCap >= 100 {
		return fmt.Errorf("upload.progress_cap must be between 1 and 99")
	}
	if c.Upload.DisplayDelay < 0 {
		return fmt.Errorf("upload.display_delay must not be negative")
	}
	if c.Notifications.Duration <= 0 {
		return fmt.Errorf("notifications.duration must be positive")
	}
	if c.Stub.Port <= 0 || c.Stub.Port > 65535 {
		return fmt.Errorf("stub.port out of range: %d", c.Stub.Port)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_API_URL")); v != "" {
		c.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_LOG_MODE")); v != "" {
		c.Logging.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_LOG_FILE")); v != "" {
		c.Logging.File = v
	}
	if v := strings.TrimSpace(os.Getenv("ASSISTANT_WATCH_DIR")); v != "" {
		c.Watch.Directory = v
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Stub.Port = p
		}
	}
	if v := strings.TrimSpace(os.Getenv("STUB_DATA_DIR")); v != "" {
		c.Stub.DataDirectory = v
	}
	// The real backend reports whether it has an OpenAI key; the stub mirrors
	// that when the variable is present in its environment.
	if v, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		c.Stub.APIKeyConfigured = strings.TrimSpace(v) != ""
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Watch.Directory,
		&c.Transcript.Path,
		&c.Stub.DataDirectory,
		&c.Stub.AnswersFile,
		&c.Logging.File,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetStubAddr returns the stub server bind address
func (c *AppConfig) GetStubAddr() string {
	return fmt.Sprintf("%s:%d", c.Stub.BindAddress, c.Stub.Port)
}

// EnsureDirectories creates the directories the client and stub write into
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.Stub.DataDirectory}
	if c.Transcript.Enabled && c.Transcript.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Transcript.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
