// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leseb/trivia-gw/pkg/core/api"
	"github.com/leseb/trivia-gw/pkg/core/config"
	"github.com/leseb/trivia-gw/pkg/core/prompt"
	"github.com/leseb/trivia-gw/pkg/core/schema"
	"github.com/leseb/trivia-gw/pkg/observability/logging"
	"github.com/leseb/trivia-gw/pkg/observability/metrics"
	"github.com/leseb/trivia-gw/pkg/websearch"
)

// Engine answers prediction requests: it searches both providers
// concurrently, asks the model, and projects the reply into a response.
type Engine struct {
	model  string
	search config.SearchConfig
	config config.EngineConfig

	google     websearch.Provider
	duckduckgo websearch.Provider
	llm        api.CompletionClient
	logger     *logging.Logger
}

// New creates a new Engine. A nil logger discards output.
func New(cfg *config.Config, google, duckduckgo websearch.Provider, llm api.CompletionClient, logger *logging.Logger) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if google == nil || duckduckgo == nil {
		return nil, fmt.Errorf("both search providers are required")
	}
	if llm == nil {
		return nil, fmt.Errorf("completion client is required")
	}
	if logger == nil {
		logger = logging.Nop()
	}

	return &Engine{
		model:      cfg.LLM.Model,
		search:     cfg.Search,
		config:     cfg.Engine,
		google:     google,
		duckduckgo: duckduckgo,
		llm:        llm,
		logger:     logger,
	}, nil
}

// Predict runs one request through search, completion and projection.
//
// Search failures never fail the request; the failing provider contributes
// an empty list. Errors from the completion client are returned as
// *api.CompletionError and reply violations as *schema.ValidationError.
func (e *Engine) Predict(ctx context.Context, req *schema.PredictionRequest) (*schema.PredictionResponse, error) {
	if req == nil {
		return nil, &schema.ValidationError{Field: "request", Message: "missing body"}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger := e.logger.With("request_id", req.ID)
	term := req.SearchTerm()

	google, duckduckgo := e.searchAll(ctx, logger, term)
	logger.Debug("search finished", "google_results", len(google), "duckduckgo_results", len(duckduckgo))

	userMessage := req.Query
	if !e.config.OmitSearchContext {
		userMessage = prompt.Compose(duckduckgo, google, req.Query)
	}

	reply, err := e.complete(ctx, userMessage)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return nil, err
	}

	resp, err := schema.ProjectReply(req.ID, reply, e.reasoningPrefix())
	if err != nil {
		logger.Warn("model reply rejected", "error", err)
		return nil, err
	}
	return resp, nil
}

// searchAll queries both providers concurrently and waits for both.
func (e *Engine) searchAll(ctx context.Context, logger *logging.Logger, term string) (google, duckduckgo []websearch.SearchResult) {
	var g errgroup.Group
	g.Go(func() error {
		google = e.searchOne(ctx, logger, e.google, term, e.search.Google.Count, e.search.Google.Language)
		return nil
	})
	g.Go(func() error {
		duckduckgo = e.searchOne(ctx, logger, e.duckduckgo, term, e.search.DuckDuckGo.Count, e.search.DuckDuckGo.Region)
		return nil
	})
	// Branches downgrade failures to empty lists and never return an error.
	g.Wait()
	return google, duckduckgo
}

// searchOne runs a single provider under the search timeout. Any failure
// is logged and downgraded to an empty list.
func (e *Engine) searchOne(ctx context.Context, logger *logging.Logger, p websearch.Provider, term string, count int, locale string) []websearch.SearchResult {
	if e.search.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.search.Timeout)
		defer cancel()
	}

	results, err := p.Search(ctx, term, count, locale)
	if err != nil {
		outcome := metrics.SearchError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = metrics.SearchTimeout
		}
		metrics.SearchRequestsTotal.WithLabelValues(p.Name(), outcome).Inc()
		logger.Warn("web search failed, continuing without results",
			"provider", p.Name(),
			"outcome", outcome,
			"error", err,
		)
		return []websearch.SearchResult{}
	}

	if results == nil {
		results = []websearch.SearchResult{}
	}
	metrics.SearchRequestsTotal.WithLabelValues(p.Name(), metrics.SearchOK).Inc()
	metrics.SearchResults.WithLabelValues(p.Name()).Observe(float64(len(results)))
	return results
}

func (e *Engine) complete(ctx context.Context, userMessage string) (map[string]any, error) {
	if e.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.LLMTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := e.llm.Complete(ctx, userMessage, e.model)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeServerError
		var cerr *api.CompletionError
		if !errors.As(err, &cerr) {
			err = &api.CompletionError{Reason: "request failed", Err: err}
		}
	}
	metrics.LLMRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return reply, err
}

func (e *Engine) reasoningPrefix() string {
	if !e.config.PrefixReasoning() || e.model == "" {
		return ""
	}
	return e.model + ": "
}
