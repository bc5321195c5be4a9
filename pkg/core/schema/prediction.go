// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"strings"
)

// PredictionRequest is the body of POST /api/request.
//
// Query holds the search term on its first line; any following lines are
// answer options that are passed to the model but not to search.
type PredictionRequest struct {
	ID    int    `json:"id"`
	Query string `json:"query"`
}

// PredictionResponse is the answer returned for a PredictionRequest.
type PredictionResponse struct {
	ID        int      `json:"id"`
	Answer    int      `json:"answer"`
	Reasoning string   `json:"reasoning"`
	Sources   []string `json:"sources"`
}

// ErrorResponse is the body of every non-200 reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError reports malformed or missing fields, either in an
// inbound request or in the model reply being projected into a response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the request before any upstream call is made.
func (r *PredictionRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if strings.TrimSpace(r.SearchTerm()) == "" {
		return &ValidationError{Field: "query", Message: "first line must contain the question"}
	}
	return nil
}

// SearchTerm returns the text before the first line break.
func (r *PredictionRequest) SearchTerm() string {
	term, _, _ := strings.Cut(r.Query, "\n")
	return strings.TrimSuffix(term, "\r")
}
