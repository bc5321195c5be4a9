// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package prompt builds the messages sent to the completion backend.
package prompt

import (
	"fmt"
	"strings"

	"github.com/leseb/trivia-gw/pkg/websearch"
)

// SystemPrompt is the fixed system message. It tells the model how to read
// the three positional blocks of the user message and which JSON object to
// return.
const SystemPrompt = `You are an assistant that answers questions about ITMO University.

The user message contains three blocks, always in this order:
1. "DuckDuckGo results": web search results from DuckDuckGo.
2. "Google results": web search results from Google.
3. "Question": the question, optionally followed by numbered answer options (one per line).

Use the search results as evidence when they are relevant; otherwise rely on your own knowledge.

Reply with a single JSON object and nothing else, no markdown and no code fences:
{"answer": <integer>, "reasoning": "<short explanation>", "sources": ["<url>", ...]}

Rules:
- "answer" is the number of the correct option. If the question has no numbered options, use 0.
- "reasoning" is one or two sentences.
- "sources" lists at most 3 http(s) URLs you relied on, taken from the search results. Use [] if none.`

// userTemplate holds the positional blocks: DuckDuckGo results, Google
// results, then the full question. The order is part of the contract with
// SystemPrompt.
const userTemplate = `DuckDuckGo results:
%s

Google results:
%s

Question:
%s`

const noResults = "(no results)"

// Compose renders the user message. question is embedded verbatim, including
// any answer options. Result text is not escaped.
func Compose(duckduckgo, google []websearch.SearchResult, question string) string {
	return fmt.Sprintf(userTemplate, formatResults(duckduckgo), formatResults(google), question)
}

func formatResults(results []websearch.SearchResult) string {
	if len(results) == 0 {
		return noResults
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[%d] %s\n", i+1, r.Title)
		if r.Description != "" {
			sb.WriteString(r.Description)
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Source: %s\n", r.Source)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
