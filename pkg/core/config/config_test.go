// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_API_BASE", "OPENAI_MODEL", "LLM_PROVIDER",
		"GOOGLE_SEARCH_API_KEY", "GOOGLE_SEARCH_CX", "LOG_LEVEL", "LOG_FILE", "PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	clearEnv(t)
	cfg := Default()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.Google.Count != 3 || cfg.Search.Google.Language != "lang_ru" {
		t.Errorf("unexpected google defaults: %+v", cfg.Search.Google)
	}
	if cfg.Search.DuckDuckGo.Count != 5 || cfg.Search.DuckDuckGo.Region != "ru-ru" {
		t.Errorf("unexpected duckduckgo defaults: %+v", cfg.Search.DuckDuckGo)
	}
	if cfg.Search.Timeout != 10*time.Second {
		t.Errorf("Search.Timeout = %v, want 10s", cfg.Search.Timeout)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if !cfg.Engine.PrefixReasoning() {
		t.Error("expected reasoning prefix enabled by default")
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
  cors_allowed_origins: ["https://quiz.example.com"]
llm:
  model: file-model
  api_key: file-key
search:
  timeout: 3s
  google:
    count: 7
  duckduckgo:
    region: us-en
engine:
  omit_search_context: true
  reasoning_prefix: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GOOGLE_SEARCH_CX", "env-cx")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if len(cfg.Server.CORSAllowedOrigins) != 1 {
		t.Errorf("CORSAllowedOrigins = %v", cfg.Server.CORSAllowedOrigins)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("LLM.APIKey = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "file-model" {
		t.Errorf("LLM.Model = %q, want file-model", cfg.LLM.Model)
	}
	if cfg.Search.Google.CX != "env-cx" {
		t.Errorf("Google.CX = %q, want env-cx", cfg.Search.Google.CX)
	}
	if cfg.Search.Google.Count != 7 {
		t.Errorf("Google.Count = %d, want 7", cfg.Search.Google.Count)
	}
	if cfg.Search.Google.Language != "lang_ru" {
		t.Errorf("Google.Language = %q, want default lang_ru", cfg.Search.Google.Language)
	}
	if cfg.Search.DuckDuckGo.Region != "us-en" {
		t.Errorf("DuckDuckGo.Region = %q, want us-en", cfg.Search.DuckDuckGo.Region)
	}
	if cfg.Search.Timeout != 3*time.Second {
		t.Errorf("Search.Timeout = %v, want 3s", cfg.Search.Timeout)
	}
	if !cfg.Engine.OmitSearchContext {
		t.Error("expected OmitSearchContext from file")
	}
	if cfg.Engine.PrefixReasoning() {
		t.Error("expected reasoning prefix disabled from file")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "openai without model",
			mutate:  func(c *Config) {},
			wantErr: "llm.model is required",
		},
		{
			name:   "mock needs no model",
			mutate: func(c *Config) { c.LLM.Provider = "mock" },
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.LLM.Provider = "bedrock" },
			wantErr: `unknown llm.provider "bedrock"`,
		},
		{
			name: "negative count",
			mutate: func(c *Config) {
				c.LLM.Model = "m"
				c.Search.DuckDuckGo.Count = -1
			},
			wantErr: "search.duckduckgo.count must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestGoogleConfig_Params(t *testing.T) {
	p := GoogleConfig{APIKey: "k", CX: "c", BaseURL: "http://x"}.Params()
	if p["api_key"] != "k" || p["cx"] != "c" || p["base_url"] != "http://x" {
		t.Errorf("unexpected params %v", p)
	}
}

func TestLoad_ExampleFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join("..", "..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("example config does not validate: %v", err)
	}
	if cfg.Logging.File != "logs/api.log" {
		t.Errorf("Logging.File = %q", cfg.Logging.File)
	}
	if cfg.Engine.LLMTimeout != 60*time.Second {
		t.Errorf("Engine.LLMTimeout = %v", cfg.Engine.LLMTimeout)
	}
}
