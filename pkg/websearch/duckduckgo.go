// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package websearch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/leseb/trivia-gw/pkg/provider"
)

// DuckDuckGoBaseURL is the keyless HTML search endpoint.
const DuckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

const duckDuckGoUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func init() {
	Providers.Register("duckduckgo", func(_ context.Context, params provider.Params) (Provider, error) {
		p := NewDuckDuckGoProvider()
		if base := params["base_url"]; base != "" {
			p.baseURL = base
		}
		return p, nil
	})
}

// DuckDuckGoProvider performs keyless web searches by reading DuckDuckGo's
// HTML results page.
type DuckDuckGoProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewDuckDuckGoProvider creates a DuckDuckGo provider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		baseURL:    DuckDuckGoBaseURL,
		httpClient: defaultHTTPClient(),
	}
}

// Name implements Provider.
func (d *DuckDuckGoProvider) Name() string { return "duckduckgo" }

// Search posts the query to the HTML endpoint. locale is a DuckDuckGo
// region code such as "ru-ru" or "us-en".
func (d *DuckDuckGoProvider) Search(ctx context.Context, query string, count int, locale string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, providerErr(d.Name(), "query is empty")
	}

	form := url.Values{}
	form.Set("q", query)
	if locale != "" {
		form.Set("kl", locale)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, providerErr(d.Name(), "create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", duckDuckGoUserAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, providerErr(d.Name(), "request: %w", err)
	}
	defer resp.Body.Close()

	// DuckDuckGo answers throttled clients with 202 and a challenge page.
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, providerErr(d.Name(), "returned status %d: %s", resp.StatusCode, string(body))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, providerErr(d.Name(), "parse response: %w", err)
	}
	return parseDuckDuckGoResults(doc, count), nil
}

// parseDuckDuckGoResults walks the results page and extracts up to limit
// organic results. Sponsored blocks are skipped.
func parseDuckDuckGoResults(doc *html.Node, limit int) []SearchResult {
	if limit < 1 {
		return []SearchResult{}
	}
	results := make([]SearchResult, 0, limit)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "result") {
			if hasClass(n, "result--ad") {
				return
			}
			if r, ok := extractDuckDuckGoResult(n); ok {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

func extractDuckDuckGoResult(n *html.Node) (SearchResult, bool) {
	link := findByClass(n, "result__a")
	if link == nil {
		return SearchResult{}, false
	}
	source := resolveDuckDuckGoLink(attr(link, "href"))
	title := nodeText(link)
	if source == "" || title == "" {
		return SearchResult{}, false
	}

	var description string
	if snippet := findByClass(n, "result__snippet"); snippet != nil {
		description = nodeText(snippet)
	}

	return SearchResult{
		Title:       title,
		Description: description,
		Source:      source,
		Metadata:    map[string]any{"engine": "duckduckgo"},
	}, true
}

// resolveDuckDuckGoLink unwraps "//duckduckgo.com/l/?uddg=<target>" redirect
// links into the target URL. Anything that is not an absolute http(s) URL
// resolves to "".
func resolveDuckDuckGoLink(href string) string {
	return resolveLink(href, true)
}

func resolveLink(href string, unwrap bool) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if unwrap && strings.HasSuffix(u.Host, "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return resolveLink(target, false)
		}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// nodeText concatenates the visible text below n with whitespace collapsed.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
