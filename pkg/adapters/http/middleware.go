// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"bytes"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"

	// maxLoggedBody caps how much of a request or response body is logged.
	maxLoggedBody = 4 << 10
)

// statusRecorder captures the status code and the start of the body.
type statusRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if room := maxLoggedBody - r.body.Len(); room > 0 {
		r.body.Write(b[:min(len(b), room)])
	}
	return r.ResponseWriter.Write(b)
}

// withRequestLogging tags the request with an id and logs the request and
// response bodies, status and duration. Bodies are only logged for POST.
func (h *Handler) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		logger := h.logger.With("http_request_id", id)
		logBodies := r.Method == http.MethodPost

		var reqBody []byte
		if logBodies && r.Body != nil {
			data, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
			r.Body.Close()
			if err != nil {
				logger.Warn("Failed to read request body", "error", err)
			}
			reqBody = data
			r.Body = io.NopCloser(bytes.NewReader(data))
		}

		attrs := []any{"method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr}
		if logBodies {
			attrs = append(attrs, "body", truncateBody(reqBody))
		}
		logger.Info("Request", attrs...)

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		attrs = []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond).String(),
		}
		if logBodies {
			attrs = append(attrs, "body", truncateBody(rec.body.Bytes()))
		}
		logger.Info("Request completed", attrs...)
	})
}

// withRecovery turns a panic in a handler into a 500.
func (h *Handler) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				h.logger.Error("Handler panicked", "panic", v, "stack", string(debug.Stack()))
				h.writeError(w, http.StatusInternalServerError, internalErrorDetail)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func truncateBody(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}
