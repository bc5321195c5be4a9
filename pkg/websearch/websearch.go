// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package websearch adapts external web search APIs to a single Provider
// contract. Every provider normalizes its native result shape into
// SearchResult so downstream prompt building never sees provider-specific
// fields.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/leseb/trivia-gw/pkg/provider"
)

// Providers is the registry of web search backends. Implementations
// register themselves from init().
var Providers = provider.NewRegistry[Provider]("web_search")

// SearchResult represents a single web search result.
type SearchResult struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Source      string         `json:"source"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Provider performs web searches against an external API.
//
// Implementations hold only credentials and an HTTP client, so a single
// instance is safe to share across concurrent requests. Providers never
// retry; every failure is returned as a *ProviderError.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, count int, locale string) ([]SearchResult, error)
}

// ProviderError reports a failed search against a named provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s search: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func providerErr(name string, format string, args ...any) *ProviderError {
	return &ProviderError{Provider: name, Err: fmt.Errorf(format, args...)}
}

// defaultHTTPClient has no overall timeout; callers bound each search
// through the request context.
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
