package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/lussekatt/internal/access"
	"github.com/shrimpsizemoose/lussekatt/internal/app"
	"github.com/shrimpsizemoose/lussekatt/internal/store"
)

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Access
// denials keep their human-readable message (locked_by included) so the
// caller can show it directly.
func writeError(w http.ResponseWriter, err error) {
	var denied *access.DeniedError
	switch {
	case errors.As(err, &denied):
		http.Error(w, denied.Error(), http.StatusForbidden)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, store.ErrNoRowsAffected):
		http.Error(w, "Lock update did not apply: no matching row", http.StatusConflict)
	case errors.Is(err, app.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, app.ErrInvalidCredentials):
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
	default:
		logger.Error.Printf("ERROR: %v", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
