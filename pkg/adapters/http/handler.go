// Copyright OpenAI Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leseb/trivia-gw/pkg/core/schema"
	"github.com/leseb/trivia-gw/pkg/observability/logging"
)

// Predictor answers a single prediction request. Implemented by
// engine.Engine.
type Predictor interface {
	Predict(ctx context.Context, req *schema.PredictionRequest) (*schema.PredictionResponse, error)
}

// Handler implements the HTTP adapter
type Handler struct {
	engine Predictor
	logger *logging.Logger
	mux    *http.ServeMux
}

// New creates a new HTTP handler
func New(eng Predictor, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Handler{
		engine: eng,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	// Register routes
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	// Prediction API
	h.mux.HandleFunc("POST /api/request", h.handlePrediction)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withRequestLogging(h.withRecovery(h.mux)).ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// writeError writes the {"detail": ...} error body used by every endpoint.
func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, schema.ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
