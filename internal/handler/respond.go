package handler

import (
	"encoding/json"
	"net/http"

	"paylab/internal/metrics"
	"paylab/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps structured error kinds onto HTTP statuses. Wrapped causes
// of configuration errors stay in the logs, not the response.
func writeError(w http.ResponseWriter, err error) {
	pe := model.AsPayError(err)
	metrics.ErrorsCount.WithLabelValues(string(pe.Kind)).Inc()

	status := http.StatusInternalServerError
	switch pe.Kind {
	case model.ErrValidation:
		status = http.StatusBadRequest
	case model.ErrInsufficientFunds:
		status = http.StatusBadRequest
	case model.ErrNetwork:
		status = http.StatusBadGateway
	case model.ErrConfiguration:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, model.ErrorResponse{
		Error:   string(pe.Kind),
		Message: pe.Msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
		Error: "Method not allowed",
	})
}
