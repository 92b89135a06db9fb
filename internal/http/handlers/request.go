package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hongminglow/foodie-be/internal/http/respond"
	"github.com/hongminglow/foodie-be/internal/models"
	"github.com/hongminglow/foodie-be/internal/session"
	"github.com/hongminglow/foodie-be/internal/storage"
)

const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// currentIdentity is the signed-in identity or nil.
func currentIdentity(r *http.Request) *models.Identity {
	return session.FromContext(r.Context()).Current()
}

// mustIdentity is for routes already behind an authenticated guard.
func mustIdentity(r *http.Request) models.Identity {
	if identity := currentIdentity(r); identity != nil {
		return *identity
	}
	return models.Identity{}
}

// storeError writes 404 for missing records and logs anything else as a 500.
func storeError(w http.ResponseWriter, r *http.Request, op string, err error, message string) {
	if errors.Is(err, storage.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "not found")
		return
	}
	respond.Internal(w, r, op, err, message)
}
