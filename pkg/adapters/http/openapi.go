// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/leseb/trivia-gw/docs"
	"gopkg.in/yaml.v3"
)

var (
	cachedJSON []byte
	jsonOnce   sync.Once
)

// handleOpenAPI serves the embedded OpenAPI document as JSON.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOnce.Do(func() {
		var spec map[string]any
		if err := yaml.Unmarshal(docs.OpenAPISpec, &spec); err != nil {
			h.logger.Error("Failed to parse embedded OpenAPI document", "error", err)
			return
		}
		data, err := json.Marshal(spec)
		if err != nil {
			h.logger.Error("Failed to marshal OpenAPI document to JSON", "error", err)
			return
		}
		cachedJSON = data
	})

	if cachedJSON == nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load OpenAPI document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(cachedJSON)
}
