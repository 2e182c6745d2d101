package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"seg-orchestrator/core/submission"
	"seg-orchestrator/core/template"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the submission error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var invalid *submission.ValidationError
	var missing *template.MissingVariableError
	var notFound *submission.NotFoundError

	switch {
	case errors.As(err, &invalid), errors.As(err, &missing):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
