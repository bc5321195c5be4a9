// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prediction outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
)

// Search outcomes.
const (
	SearchOK      = "ok"
	SearchError   = "error"
	SearchTimeout = "timeout"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_predictions_total",
			Help: "Total number of prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trivia_prediction_duration_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trivia_search_requests_total",
			Help: "Total number of web search calls by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_search_results",
			Help:    "Number of results returned per search call",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"provider"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trivia_llm_request_duration_seconds",
			Help:    "Chat completion latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		},
		[]string{"outcome"},
	)
)
