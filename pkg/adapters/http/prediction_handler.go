// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/leseb/trivia-gw/pkg/core/schema"
	"github.com/leseb/trivia-gw/pkg/observability/metrics"
)

// maxRequestBody bounds the size of a prediction request.
const maxRequestBody = 1 << 20

// internalErrorDetail is the only detail exposed for unexpected failures.
const internalErrorDetail = "Internal server error"

// handlePrediction handles POST /api/request
func (h *Handler) handlePrediction(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		metrics.PredictionsTotal.WithLabelValues(outcome).Inc()
		metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := decodePredictionRequest(r)
	if err != nil {
		outcome = metrics.OutcomeClientError
		h.logger.Warn("Invalid prediction request", "error", err)
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Info("Processing prediction request", "id", req.ID, "query", req.Query)

	resp, err := h.engine.Predict(r.Context(), req)
	if err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			outcome = metrics.OutcomeClientError
			h.logger.Warn("Prediction rejected", "id", req.ID, "error", err)
			h.writeError(w, http.StatusBadRequest, verr.Error())
			return
		}
		outcome = metrics.OutcomeServerError
		h.logger.Error("Prediction failed", "id", req.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, internalErrorDetail)
		return
	}

	writeJSON(w, http.StatusOK, resp)

	h.logger.Info("Prediction sent",
		"id", resp.ID,
		"answer", resp.Answer,
		"sources", len(resp.Sources))
}

// decodePredictionRequest parses and validates the request body. Unknown
// fields are ignored; a body that is not a JSON object, has wrongly typed
// fields or misses the query is a *schema.ValidationError.
func decodePredictionRequest(r *http.Request) (*schema.PredictionRequest, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&raw); err != nil {
		return nil, &schema.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if raw == nil {
		return nil, &schema.ValidationError{Field: "body", Message: "expected a JSON object"}
	}

	req := &schema.PredictionRequest{}
	idRaw, ok := raw["id"]
	if !ok {
		return nil, &schema.ValidationError{Field: "id", Message: "field required"}
	}
	if string(idRaw) == "null" {
		return nil, &schema.ValidationError{Field: "id", Message: "must be an integer"}
	}
	if err := json.Unmarshal(idRaw, &req.ID); err != nil {
		return nil, &schema.ValidationError{Field: "id", Message: "must be an integer"}
	}
	queryRaw, ok := raw["query"]
	if !ok {
		return nil, &schema.ValidationError{Field: "query", Message: "field required"}
	}
	if err := json.Unmarshal(queryRaw, &req.Query); err != nil {
		return nil, &schema.ValidationError{Field: "query", Message: "must be a string"}
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
