// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, content string, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("expected Authorization Bearer test-key, got %s", auth)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   req.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := completionServer(t, `{"answer": 2, "reasoning": "R", "sources": ["https://example.com"]}`, func(req chatRequest) {
		if req.Model != "gpt-4o-mini" {
			t.Errorf("expected model gpt-4o-mini, got %s", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[0].Content != "be terse" {
			t.Errorf("unexpected system message %+v", req.Messages[0])
		}
		if req.Messages[1].Role != "user" || req.Messages[1].Content != "question?" {
			t.Errorf("unexpected user message %+v", req.Messages[1])
		}
	})

	client := NewOpenAIClient(srv.URL+"/v1", "test-key", "be terse")
	got, err := client.Complete(context.Background(), "question?", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["answer"] != float64(2) {
		t.Errorf("answer = %v, want 2", got["answer"])
	}
	if got["reasoning"] != "R" {
		t.Errorf("reasoning = %v, want R", got["reasoning"])
	}
}

func TestOpenAIClient_InvalidJSONReply(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "prose", content: "The answer is 2."},
		{name: "array", content: `[1, 2]`},
		{name: "null", content: `null`},
		{name: "fenced", content: "```json\n{\"answer\": 1}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.content, nil)
			client := NewOpenAIClient(srv.URL+"/v1", "test-key", "sys")

			_, err := client.Complete(context.Background(), "q", "m")
			var cerr *CompletionError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *CompletionError, got %T (%v)", err, err)
			}
			if !errors.Is(err, ErrInvalidJSON) {
				t.Errorf("expected ErrInvalidJSON, got %v", err)
			}
		})
	}
}

func TestOpenAIClient_TransportErrorNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(srv.URL+"/v1", "test-key", "sys")
	_, err := client.Complete(context.Background(), "q", "m")

	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CompletionError, got %T (%v)", err, err)
	}
	if errors.Is(err, ErrInvalidJSON) {
		t.Error("transport failure must not be reported as invalid JSON")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", n)
	}
}

func TestMockCompletionClient(t *testing.T) {
	m := NewMockCompletionClient("sys", "")

	got, err := m.Complete(context.Background(), "hello", "mock-model")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["answer"] != float64(1) {
		t.Errorf("answer = %v, want 1", got["answer"])
	}

	m.SetReply("not json")
	if _, err := m.Complete(context.Background(), "again", "mock-model"); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got %v", err)
	}

	boom := errors.New("boom")
	m.SetError(boom)
	if _, err := m.Complete(context.Background(), "x", "mock-model"); !errors.Is(err, boom) {
		t.Errorf("expected wrapped boom, got %v", err)
	}

	calls := m.Calls()
	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	if calls[0].SystemPrompt != "sys" || calls[0].UserMessage != "hello" || calls[0].Model != "mock-model" {
		t.Errorf("unexpected first call %+v", calls[0])
	}
}
