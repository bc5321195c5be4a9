// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	httpAdapter "github.com/leseb/trivia-gw/pkg/adapters/http"
	"github.com/leseb/trivia-gw/pkg/core/api"
	"github.com/leseb/trivia-gw/pkg/core/config"
	"github.com/leseb/trivia-gw/pkg/core/engine"
	"github.com/leseb/trivia-gw/pkg/core/prompt"
	"github.com/leseb/trivia-gw/pkg/observability/logging"
	"github.com/leseb/trivia-gw/pkg/websearch"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	envPath := flag.String("env-file", ".env", "Path to a dotenv file loaded before configuration")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	// Print version
	if *version {
		fmt.Printf("Trivia Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Bootstrap logger, replaced once the configuration is known
	bootLogger := logging.New(logging.Config{Level: "info", Format: "json"})

	// Load .env before reading configuration so it can feed env overrides
	if err := godotenv.Load(*envPath); err != nil {
		bootLogger.Info("No dotenv file loaded", "path", *envPath, "error", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		// If config file doesn't exist, use defaults
		bootLogger.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}

	// Override port if specified
	if *port != 0 {
		cfg.Server.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		bootLogger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	defer logger.Close()
	logger.Info("Starting Trivia Gateway Server",
		"version", Version,
		"build_time", BuildTime)

	// Initialize web search providers
	initCtx := context.Background()
	google, err := websearch.Providers.New(initCtx, "google", cfg.Search.Google.Params())
	if err != nil {
		logger.Error("Failed to initialize Google search", "error", err)
		os.Exit(1)
	}
	duckduckgo, err := websearch.Providers.New(initCtx, "duckduckgo", cfg.Search.DuckDuckGo.Params())
	if err != nil {
		logger.Error("Failed to initialize DuckDuckGo search", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized web search providers", "available", websearch.Providers.Available())

	// Initialize chat completion client
	var llm api.CompletionClient
	switch cfg.LLM.Provider {
	case "mock":
		llm = api.NewMockCompletionClient(prompt.SystemPrompt, "")
		logger.Warn("Using mock completion backend")
	default:
		llm = api.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, prompt.SystemPrompt)
		logger.Info("Initialized completion client", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	}

	// Initialize engine
	eng, err := engine.New(cfg, google, duckduckgo, llm, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized engine",
		"search_timeout", cfg.Search.Timeout,
		"llm_timeout", cfg.Engine.LLMTimeout,
		"omit_search_context", cfg.Engine.OmitSearchContext)

	// Initialize HTTP adapter
	var handler http.Handler = httpAdapter.New(eng, logger)
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		}).Handler(handler)
		logger.Info("CORS enabled", "origins", cfg.Server.CORSAllowedOrigins)
	}
	logger.Info("Initialized HTTP adapter")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
