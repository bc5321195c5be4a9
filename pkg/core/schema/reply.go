// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// DefaultReasoning replaces a missing reasoning field in the model reply.
const DefaultReasoning = "No reasoning provided"

// replySchemaJSON describes the JSON object the model must return. answer
// and reasoning may be missing or null and are defaulted; sources may not.
const replySchemaJSON = `{
  "type": "object",
  "required": ["sources"],
  "properties": {
    "answer":    {"type": ["integer", "null"], "minimum": -2147483648, "maximum": 2147483647},
    "reasoning": {"type": ["string", "null"]},
    "sources": {
      "type": "array",
      "items": {"type": "string", "format": "http-url"}
    }
  }
}`

var replySchema *gojsonschema.Schema

// httpURLChecker accepts absolute http and https URLs with a host.
type httpURLChecker struct{}

func (httpURLChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return true
	}
	return IsHTTPURL(s)
}

func init() {
	// Unknown formats are ignored when a schema is compiled, so the checker
	// must be registered first.
	gojsonschema.FormatCheckers.Add("http-url", httpURLChecker{})

	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(replySchemaJSON))
	if err != nil {
		panic(fmt.Sprintf("schema: compile reply schema: %v", err))
	}
	replySchema = s
}

// IsHTTPURL reports whether s is a well-formed absolute http(s) URL.
func IsHTTPURL(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ProjectReply maps a decoded model reply onto a PredictionResponse.
// reasoningPrefix is prepended to the reasoning text. Any schema violation
// is returned as a *ValidationError and no response is built.
func ProjectReply(id int, reply map[string]any, reasoningPrefix string) (*PredictionResponse, error) {
	if reply == nil {
		return nil, &ValidationError{Field: "reply", Message: "empty reply"}
	}

	result, err := replySchema.Validate(gojsonschema.NewGoLoader(reply))
	if err != nil {
		return nil, &ValidationError{Field: "reply", Message: err.Error()}
	}
	if !result.Valid() {
		return nil, replyValidationError(result.Errors())
	}

	answer := 0
	if v := reply["answer"]; v != nil {
		n, ok := toInt(v)
		if !ok {
			return nil, &ValidationError{Field: "answer", Message: "must be a 32-bit integer"}
		}
		answer = n
	}

	reasoning := DefaultReasoning
	if s, ok := reply["reasoning"].(string); ok {
		reasoning = s
	}

	raw, _ := reply["sources"].([]any)
	sources := make([]string, 0, len(raw))
	for _, s := range raw {
		sources = append(sources, s.(string))
	}

	return &PredictionResponse{
		ID:        id,
		Answer:    answer,
		Reasoning: reasoningPrefix + reasoning,
		Sources:   sources,
	}, nil
}

func replyValidationError(errs []gojsonschema.ResultError) *ValidationError {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		field := e.Field()
		if field == "(root)" {
			field = "reply"
		}
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, e.Description()))
	}
	field := "reply"
	if len(errs) > 0 && errs[0].Field() != "(root)" {
		field = errs[0].Field()
	}
	return &ValidationError{Field: field, Message: strings.Join(msgs, "; ")}
}

// toInt converts a decoded JSON integer, rejecting values outside the
// int32 range.
func toInt(v any) (int, bool) {
	var i int64
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, false
		}
		i = int64(n)
	case int:
		i = int64(n)
	case int64:
		i = n
	case json.Number:
		var err error
		if i, err = n.Int64(); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, false
	}
	return int(i), true
}
