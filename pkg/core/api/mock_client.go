// Copyright OpenAI Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"sync"
)

// DefaultMockReply is what the mock backend answers when no reply is scripted.
const DefaultMockReply = `{"answer": 1, "reasoning": "mock completion backend", "sources": []}`

// MockCall records a single Complete invocation.
type MockCall struct {
	SystemPrompt string
	UserMessage  string
	Model        string
}

// MockCompletionClient is a CompletionClient with a scripted reply. It is
// used by tests and by the "mock" llm provider for running without a model.
type MockCompletionClient struct {
	systemPrompt string

	mu    sync.Mutex
	reply string
	err   error
	calls []MockCall
}

// NewMockCompletionClient creates a mock client that answers every call
// with reply, parsed the same way a real model reply is.
func NewMockCompletionClient(systemPrompt, reply string) *MockCompletionClient {
	if reply == "" {
		reply = DefaultMockReply
	}
	return &MockCompletionClient{systemPrompt: systemPrompt, reply: reply}
}

// SetReply replaces the scripted reply text.
func (m *MockCompletionClient) SetReply(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = reply
}

// SetError makes every subsequent call fail with err wrapped in a
// CompletionError; nil restores the scripted reply.
func (m *MockCompletionClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns a copy of the recorded calls.
func (m *MockCompletionClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// Complete implements CompletionClient.
func (m *MockCompletionClient) Complete(ctx context.Context, userMessage, model string) (map[string]any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{
		SystemPrompt: m.systemPrompt,
		UserMessage:  userMessage,
		Model:        model,
	})
	reply, err := m.reply, m.err
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, &CompletionError{Reason: "request failed", Err: err}
	}
	if err != nil {
		return nil, &CompletionError{Reason: "request failed", Err: err}
	}
	return parseReply(reply)
}
