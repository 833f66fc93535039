package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cchome2024/FinanceSync/internal/common"
	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/reconcile"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Conflict   reconcile.Conflict `json:"conflict,omitempty"`
	Error      string             `json:"error"`
	Message    string             `json:"message,omitempty"`
	RecordType string             `json:"recordType,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeEngineError maps engine errors onto status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var dup *reconcile.DuplicateRecordError
	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, errorBody{
			Error:      "duplicate_record",
			Message:    err.Error(),
			RecordType: string(dup.RecordType),
			Conflict:   dup.Conflict,
		})
	case errors.Is(err, engine.ErrJobNotPending):
		writeError(w, http.StatusConflict, "job_not_pending", err.Error())
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
