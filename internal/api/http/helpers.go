package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tasmee/tasmee/internal/practice"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// storeStatus maps practice sentinels onto HTTP statuses; anything
// unrecognized is a 500.
func storeStatus(err error) int {
	switch {
	case errors.Is(err, practice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, practice.ErrSessionCompleted):
		return http.StatusConflict
	case errors.Is(err, practice.ErrNoAttempts):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
