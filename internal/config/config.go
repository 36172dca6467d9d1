package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration
type Config struct {
	Version   int             `toml:"version"`
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Sources   SourcesConfig   `toml:"sources"`
	Analysis  AnalysisConfig  `toml:"analysis"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type SourcesConfig struct {
	NewsletterBaseURL string `toml:"newsletter_base_url"`
	NewsletterAPIKey  string `toml:"newsletter_api_key"`
	NetworkBaseURL    string `toml:"network_base_url"`
	NetworkAPIKey     string `toml:"network_api_key"`
	Headless          bool   `toml:"headless"`
	RetryAttempts     int    `toml:"retry_attempts"`
	RetryBaseMillis   int    `toml:"retry_base_millis"`
}

type AnalysisConfig struct {
	Provider       string   `toml:"llm_provider"`
	APIKey         string   `toml:"api_key"`
	Model          string   `toml:"model"`
	FallbackModels []string `toml:"fallback_models"`
	OpenAIAPIKey   string   `toml:"openai_api_key"`
	OpenAIBaseURL  string   `toml:"openai_base_url"`
	OpenAIModel    string   `toml:"openai_model"`
	MaxTokens      int      `toml:"max_tokens"`
}

type PipelineConfig struct {
	RelevanceLimit      int `toml:"relevance_limit"`
	DraftTarget         int `toml:"draft_target"`
	FetchTimeoutSecs    int `toml:"fetch_timeout_secs"`
	ModelTimeoutSecs    int `toml:"model_timeout_secs"`
	PersistTimeoutSecs  int `toml:"persist_timeout_secs"`
	ExclusionWindowDays int `toml:"exclusion_window_days"`
}

type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "", // resolved against the data dir when empty
		},
		Sources: SourcesConfig{
			Headless:        true,
			RetryAttempts:   3,
			RetryBaseMillis: 500,
		},
		Analysis: AnalysisConfig{
			Provider:       "anthropic",
			Model:          "claude-sonnet-4-20250514",
			FallbackModels: []string{"claude-3-5-haiku-20241022"},
			OpenAIModel:    "gpt-4o-mini",
			MaxTokens:      4096,
		},
		Pipeline: PipelineConfig{
			RelevanceLimit:      8,
			DraftTarget:         3,
			FetchTimeoutSecs:    120,
			ModelTimeoutSecs:    180,
			PersistTimeoutSecs:  30,
			ExclusionWindowDays: 90,
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "postpilot"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DatabasePath resolves the sqlite path, defaulting to the config dir.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "postpilot.db"), nil
}

// Load reads config from disk and applies environment overrides for secrets.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// applyEnv lets API keys come from the environment so they never have to
// live in the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.Analysis.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Analysis.OpenAIAPIKey = v
	}
	if v := os.Getenv("NEWSLETTER_API_KEY"); v != "" {
		c.Sources.NewsletterAPIKey = v
	}
	if v := os.Getenv("NETWORK_API_KEY"); v != "" {
		c.Sources.NetworkAPIKey = v
	}
	if v := os.Getenv("POSTPILOT_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("POSTPILOT_DB"); v != "" {
		c.Database.Path = v
	}
}
