// Package config loads staffassist configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all staffassist configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Store     StoreConfig     `yaml:"store"`
	Assistant AssistantConfig `yaml:"assistant"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	ReadTimeout  string `yaml:"read_timeout"`
	WriteTimeout string `yaml:"write_timeout"`
}

// LLMConfig configures the completion backend.
type LLMConfig struct {
	Provider        string  `yaml:"provider"` // gemini, openai, ollama
	APIKey          string  `yaml:"api_key"`
	Model           string  `yaml:"model"`
	BaseURL         string  `yaml:"base_url"`
	Timeout         string  `yaml:"timeout"`
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// StoreConfig selects the business and session store.
type StoreConfig struct {
	Kind   string `yaml:"kind"`   // sqlite, memory
	Driver string `yaml:"driver"` // sqlite (modernc), sqlite3 (mattn, cgo)
	Path   string `yaml:"path"`
}

// AssistantConfig bounds the data pulled per request.
type AssistantConfig struct {
	OrderLimit        int    `yaml:"order_limit"`
	ProductLimit      int    `yaml:"product_limit"`
	ProfileLimit      int    `yaml:"profile_limit"`
	RollupLimit       int    `yaml:"rollup_limit"`
	LowStockThreshold int    `yaml:"low_stock_threshold"`
	Timezone          string `yaml:"timezone"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  "15s",
			WriteTimeout: "30s",
		},
		LLM: LLMConfig{
			Provider:        "gemini",
			Model:           "gemini-1.5-flash",
			Timeout:         "10s",
			Temperature:     0.3,
			MaxOutputTokens: 2000,
		},
		Store: StoreConfig{
			Kind:   "sqlite",
			Driver: "sqlite",
			Path:   "./data/staffassist.db",
		},
		Assistant: AssistantConfig{
			OrderLimit:        2000,
			ProductLimit:      100,
			ProfileLimit:      50,
			RollupLimit:       20,
			LowStockThreshold: 10,
			Timezone:          "UTC",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
// API keys only apply to the provider they belong to.
func (c *Config) applyEnvOverrides() {
	switch c.LLM.Provider {
	case "gemini":
		if key := os.Getenv("GOOGLE_AI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	case "openai":
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	}

	if path := os.Getenv("STAFFASSIST_DB"); path != "" {
		c.Store.Path = path
	}
	if addr := os.Getenv("STAFFASSIST_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 10*time.Second)
}

// GetReadTimeout returns the HTTP read timeout as a duration.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout as a duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

// GetLocation returns the zone time windows are resolved in, UTC when unset or unknown.
func (c *Config) GetLocation() *time.Location {
	if c.Assistant.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Assistant.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"gemini", "openai", "ollama"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	switch c.LLM.Provider {
	case "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("Gemini API key not configured (set GOOGLE_AI_API_KEY or llm.api_key)")
		}
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("OpenAI API key not configured (set OPENAI_API_KEY or llm.api_key)")
		}
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2], got %v", c.LLM.Temperature)
	}

	if !contains([]string{"sqlite", "memory"}, c.Store.Kind) {
		return fmt.Errorf("invalid store kind: %s (valid: sqlite, memory)", c.Store.Kind)
	}
	if c.Store.Kind == "sqlite" && !contains([]string{"sqlite", "sqlite3"}, c.Store.Driver) {
		return fmt.Errorf("invalid sqlite driver: %s (valid: sqlite, sqlite3)", c.Store.Driver)
	}

	if c.Assistant.Timezone != "" {
		if _, err := time.LoadLocation(c.Assistant.Timezone); err != nil {
			return fmt.Errorf("invalid assistant.timezone: %w", err)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
