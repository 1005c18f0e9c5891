package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/swamy3697/Shop-Mate/internal/auth"
	"github.com/swamy3697/Shop-Mate/internal/imaging"
	"github.com/swamy3697/Shop-Mate/internal/media"
	"github.com/swamy3697/Shop-Mate/internal/model"
	"github.com/swamy3697/Shop-Mate/internal/search"
	"github.com/swamy3697/Shop-Mate/internal/share"
	"github.com/swamy3697/Shop-Mate/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target. Unknown
// fields are rejected.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// decodeOptionalJSON is decodeJSON for bodies that may be empty.
func decodeOptionalJSON(r *http.Request, target any) error {
	if err := decodeJSON(r, target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// serviceError maps an error from the data layer to a response. fallback is
// the message sent for unexpected failures, which are also logged.
func serviceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "not found")
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
	case errors.Is(err, media.ErrPermissionDenied):
		jsonError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, search.ErrNoCreateOffer):
		jsonError(w, http.StatusConflict, "an item with this name already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrWeakPassword):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, share.ErrUnsupportedText):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error(fallback, "method", r.Method, "path", r.URL.Path, "error", err)
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
