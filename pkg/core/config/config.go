// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leseb/trivia-gw/pkg/provider"
)

// Config represents the main configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	LLM     LLMConfig     `yaml:"llm"`
	Search  SearchConfig  `yaml:"search"`
	Engine  EngineConfig  `yaml:"engine"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	Timeout            time.Duration `yaml:"timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
	File   string `yaml:"file"`   // appended to in addition to stdout; empty disables
}

// LLMConfig contains chat completion backend configuration
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" (default) or "mock"
	BaseURL  string `yaml:"base_url"` // OpenAI-compatible endpoint, e.g. "https://api.openai.com/v1"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// SearchConfig contains web search provider configuration
type SearchConfig struct {
	Timeout    time.Duration    `yaml:"timeout"` // per provider call
	Google     GoogleConfig     `yaml:"google"`
	DuckDuckGo DuckDuckGoConfig `yaml:"duckduckgo"`
}

// GoogleConfig configures the Custom Search provider
type GoogleConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	CX       string `yaml:"cx"`
	Count    int    `yaml:"count"`
	Language string `yaml:"language"` // lr parameter, e.g. "lang_ru"
}

// DuckDuckGoConfig configures the keyless DuckDuckGo provider
type DuckDuckGoConfig struct {
	BaseURL string `yaml:"base_url"`
	Count   int    `yaml:"count"`
	Region  string `yaml:"region"` // kl parameter, e.g. "ru-ru"
}

// EngineConfig contains orchestration settings
type EngineConfig struct {
	LLMTimeout        time.Duration `yaml:"llm_timeout"`
	OmitSearchContext bool          `yaml:"omit_search_context"`
	ReasoningPrefix   *bool         `yaml:"reasoning_prefix"` // prefix reasoning with the model name; default true
}

// Params returns the registry parameters for the google provider.
func (g GoogleConfig) Params() provider.Params {
	return provider.Params{
		"api_key":  g.APIKey,
		"cx":       g.CX,
		"base_url": g.BaseURL,
	}
}

// Params returns the registry parameters for the duckduckgo provider.
func (d DuckDuckGoConfig) Params() provider.Params {
	return provider.Params{
		"base_url": d.BaseURL,
	}
}

// PrefixReasoning reports whether reasoning is prefixed with the model name.
func (e EngineConfig) PrefixReasoning() bool {
	return e.ReasoningPrefix == nil || *e.ReasoningPrefix
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}
	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg
}

// applyEnv overrides file values with environment variables. Variable
// names follow the ones the service has always been deployed with.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_BASE"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}

	if v := os.Getenv("GOOGLE_SEARCH_API_KEY"); v != "" {
		cfg.Search.Google.APIKey = v
	}
	if v := os.Getenv("GOOGLE_SEARCH_CX"); v != "" {
		cfg.Search.Google.CX = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Logging.File = v
	}

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 120 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}

	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10 * time.Second
	}
	if cfg.Search.Google.Count == 0 {
		cfg.Search.Google.Count = 3
	}
	if cfg.Search.Google.Language == "" {
		cfg.Search.Google.Language = "lang_ru"
	}
	if cfg.Search.DuckDuckGo.Count == 0 {
		cfg.Search.DuckDuckGo.Count = 5
	}
	if cfg.Search.DuckDuckGo.Region == "" {
		cfg.Search.DuckDuckGo.Region = "ru-ru"
	}

	if cfg.Engine.LLMTimeout == 0 {
		cfg.Engine.LLMTimeout = 60 * time.Second
	}
}

// Validate reports configuration that cannot serve requests.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.LLM.Provider {
	case "openai":
		if c.LLM.Model == "" {
			errs = append(errs, errors.New("llm.model is required (or set OPENAI_MODEL)"))
		}
	case "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q (want openai or mock)", c.LLM.Provider))
	}

	if c.Search.Google.Count < 1 {
		errs = append(errs, fmt.Errorf("search.google.count must be positive, got %d", c.Search.Google.Count))
	}
	if c.Search.DuckDuckGo.Count < 1 {
		errs = append(errs, fmt.Errorf("search.duckduckgo.count must be positive, got %d", c.Search.DuckDuckGo.Count))
	}
	if c.Search.Timeout < 0 || c.Engine.LLMTimeout < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}

	return errors.Join(errs...)
}
