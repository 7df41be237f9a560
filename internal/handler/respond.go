package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dukerupert/notesync/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errorStatus maps engine errors onto HTTP status codes.
func errorStatus(err error) int {
	var auth *apperr.AuthError
	switch {
	case errors.As(err, &auth):
		switch auth.Reason {
		case apperr.AuthValidation:
			return http.StatusBadRequest
		case apperr.AuthInvalidCredentials:
			return http.StatusUnauthorized
		case apperr.AuthNotAnonymous, apperr.AuthEmailInUse:
			return http.StatusConflict
		default:
			return http.StatusBadGateway
		}
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case apperr.IsSync(err, apperr.SyncUnauthenticated):
		return http.StatusUnauthorized
	case apperr.IsSync(err, ""):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
