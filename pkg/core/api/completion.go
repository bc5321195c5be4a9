// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON is wrapped by CompletionError when the model reply is not a
// JSON object.
var ErrInvalidJSON = errors.New("response not valid JSON")

// CompletionClient sends one system message, fixed when the client is
// built, and one user message to a chat completion backend and returns the
// reply decoded as a JSON object.
type CompletionClient interface {
	Complete(ctx context.Context, userMessage, model string) (map[string]any, error)
}

// CompletionError reports a failed completion: transport or auth failures,
// an empty reply, or a reply that is not JSON.
type CompletionError struct {
	Reason string
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return "completion: " + e.Reason
	}
	return fmt.Sprintf("completion: %s: %v", e.Reason, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// parseReply decodes the model's text reply. Only surrounding whitespace is
// tolerated; anything that does not decode to a JSON object is rejected.
func parseReply(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return nil, &CompletionError{Reason: "parse reply", Err: fmt.Errorf("%w: %v", ErrInvalidJSON, err)}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &CompletionError{Reason: "parse reply", Err: fmt.Errorf("%w: got %T, want object", ErrInvalidJSON, v)}
	}
	return obj, nil
}
