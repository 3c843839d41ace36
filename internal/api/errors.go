package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/flagkeep/flagkeep/internal/store"
)

// Envelope is the uniform response wrapper applied to every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeData wraps data in a success envelope.
func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, Envelope{Success: true, Data: data})
}

// writeMessage wraps an acknowledgment in a success envelope.
func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, Envelope{Success: true, Message: msg})
}

// writeError wraps a failure in the envelope.
func writeError(w http.ResponseWriter, code int, errMsg string) {
	writeJSON(w, code, Envelope{Success: false, Error: errMsg})
}

// writeFieldErrors reports validation failures; the field details ride
// in the message since the envelope carries no field map.
func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	msgs := make([]string, 0, len(fields))
	for _, field := range sortedKeys(fields) {
		msgs = append(msgs, fields[field])
	}
	writeJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Error:   "validation failed",
		Message: strings.Join(msgs, "; "),
	})
}

// storeErrorStatus classifies a store failure into an HTTP status and a
// safe error string. The mapping holds regardless of whether any
// pre-check fired: a unique-constraint violation surfacing from the
// database still returns 409.
func storeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "flag not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "flag key already exists"
	case errors.Is(err, store.ErrInvalidPayload):
		return http.StatusBadRequest, "flag_data must be valid JSON"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "store unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeStoreError logs the underlying failure and writes the classified
// envelope. Internal detail leaks into the response only in dev mode.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	code, msg := storeErrorStatus(err)
	if code == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("store operation failed")
		if s.opts.AppEnv == "dev" {
			writeJSON(w, code, Envelope{Success: false, Error: msg, Message: err.Error()})
			return
		}
	}
	writeError(w, code, msg)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
