// Package config loads application configuration from
// .promptparse/config.json with environment-variable overrides. Parse-time
// toggles live in the classify package; this file covers the process-level
// concerns: the generative backend and logging.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LLMConfig configures the generative analyzer backend.
type LLMConfig struct {
	Provider string `json:"provider"` // "gemini" is the only built-in
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`

	// TimeoutSeconds bounds one backend call. A timeout is handled like any
	// other backend failure: fall through to the deterministic path.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// Timeout returns the call timeout as a duration.
func (c LLMConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig mirrors the logging package's file-based config.
type LoggingConfig struct {
	DebugMode  bool            `json:"debug_mode"`
	Categories map[string]bool `json:"categories,omitempty"`
	Level      string          `json:"level,omitempty"`
	JSONFormat bool            `json:"json_format,omitempty"`
}

// CacheConfig bounds the analyzer result cache.
type CacheConfig struct {
	// Size is the maximum number of cached parse results. Zero or negative
	// disables caching.
	Size int `json:"size"`
}

// Config is the root application configuration.
type Config struct {
	LLM     LLMConfig     `json:"llm"`
	Logging LoggingConfig `json:"logging"`
	Cache   CacheConfig   `json:"cache"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "gemini",
			Model:          "gemini-2.0-flash",
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{Level: "info"},
		Cache:   CacheConfig{Size: 256},
	}
}

// Load reads config from <workspace>/.promptparse/config.json, falling back
// to defaults when the file is absent, then applies env overrides.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(workspace, ".promptparse", "config.json")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides layers environment variables over file values.
// GEMINI_API_KEY takes precedence over GOOGLE_API_KEY.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		c.LLM.APIKey = key
		if c.LLM.Provider == "" {
			c.LLM.Provider = "gemini"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if model := os.Getenv("PROMPTPARSE_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if os.Getenv("PROMPTPARSE_DEBUG") == "1" {
		c.Logging.DebugMode = true
		c.Logging.Level = "debug"
	}
}
