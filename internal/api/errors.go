package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/growthlab/growthlab-web/internal/platform"
)

// ErrorResponse is the JSON body of every locally generated error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeError writes a JSON error response with the given HTTP status code.
func writeError(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, ErrorResponse{Error: name, Message: message})
}

// writeJSON writes a JSON response with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeInternal logs err and answers with a generic 500; upstream details stay
// in the log.
func writeInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	logger.Error("api request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// writeUpstreamError relays a platform status and body when the platform
// answered, and falls back to writeInternal otherwise.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var apiErr *platform.APIError
	if errors.As(err, &apiErr) && json.Valid(apiErr.Body) {
		writeRaw(w, apiErr.StatusCode, apiErr.Body)
		return
	}
	writeInternal(w, r, logger, err)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
