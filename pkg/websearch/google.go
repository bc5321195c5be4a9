// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/leseb/trivia-gw/pkg/provider"
)

// GoogleBaseURL is the Custom Search JSON API endpoint.
const GoogleBaseURL = "https://www.googleapis.com/customsearch/v1"

// The Custom Search API rejects num outside 1..10.
const googleMaxResults = 10

func init() {
	Providers.Register("google", func(_ context.Context, params provider.Params) (Provider, error) {
		apiKey, err := params.Require("google", "api_key")
		if err != nil {
			return nil, err
		}
		cx, err := params.Require("google", "cx")
		if err != nil {
			return nil, err
		}
		p := NewGoogleProvider(apiKey, cx)
		if base := params["base_url"]; base != "" {
			p.baseURL = base
		}
		return p, nil
	})
}

// GoogleProvider performs web searches using the Google Custom Search API.
type GoogleProvider struct {
	apiKey     string
	cx         string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleProvider creates a Google provider for the given API key and
// Programmable Search Engine id.
func NewGoogleProvider(apiKey, cx string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:     apiKey,
		cx:         cx,
		baseURL:    GoogleBaseURL,
		httpClient: defaultHTTPClient(),
	}
}

// Name implements Provider.
func (g *GoogleProvider) Name() string { return "google" }

// Search queries the Custom Search API. locale is passed as the lr
// language restriction (e.g. "lang_ru"). A response without items yields
// an empty, non-nil slice.
func (g *GoogleProvider) Search(ctx context.Context, query string, count int, locale string) ([]SearchResult, error) {
	u, err := url.Parse(g.baseURL)
	if err != nil {
		return nil, providerErr(g.Name(), "parse base url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	q.Set("cx", g.cx)
	q.Set("q", query)
	if locale != "" {
		q.Set("lr", locale)
	}
	q.Set("num", strconv.Itoa(clampCount(count, googleMaxResults)))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, providerErr(g.Name(), "create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, providerErr(g.Name(), "request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, providerErr(g.Name(), "read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerErr(g.Name(), "returned status %d: %s", resp.StatusCode, truncate(string(body), 512))
	}

	var result googleSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, providerErr(g.Name(), "parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(result.Items))
	for _, item := range result.Items {
		results = append(results, SearchResult{
			Title:       item.Title,
			Description: item.Snippet,
			Source:      item.Link,
			Metadata:    item.Pagemap,
		})
	}
	return results, nil
}

type googleSearchResponse struct {
	Items []struct {
		Title   string         `json:"title"`
		Snippet string         `json:"snippet"`
		Link    string         `json:"link"`
		Pagemap map[string]any `json:"pagemap"`
	} `json:"items"`
}

func clampCount(n, limit int) int {
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
