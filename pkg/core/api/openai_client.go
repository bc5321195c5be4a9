// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements CompletionClient using the official OpenAI Go SDK.
// Works with OpenAI and any OpenAI-compatible backend (vLLM, Ollama, proxies).
type OpenAIClient struct {
	client       openai.Client
	systemPrompt string
}

// NewOpenAIClient creates a completion client. The baseURL parameter allows
// connecting to OpenAI-compatible backends; an empty apiKey is replaced by a
// placeholder for local backends without authentication.
func NewOpenAIClient(baseURL, apiKey, systemPrompt string, opts ...option.RequestOption) *OpenAIClient {
	reqOpts := []option.RequestOption{
		// Callers own the failure policy; a failed call is surfaced as is.
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{}),
	}

	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}

	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	} else {
		reqOpts = append(reqOpts, option.WithAPIKey("dummy"))
	}

	reqOpts = append(reqOpts, opts...)

	return &OpenAIClient{
		client:       openai.NewClient(reqOpts...),
		systemPrompt: systemPrompt,
	}
}

// Complete implements CompletionClient.
func (c *OpenAIClient) Complete(ctx context.Context, userMessage, model string) (map[string]any, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(userMessage),
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &CompletionError{Reason: "request failed", Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &CompletionError{Reason: "empty response"}
	}

	return parseReply(resp.Choices[0].Message.Content)
}
