package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/me/authkit/pkg/model"
)

// apiError is a failure with the HTTP status and the code sent in the
// "message" field of the error body.
type apiError struct {
	Status int
	Code   string
}

func (e *apiError) Error() string {
	return e.Code
}

var (
	errEmailExists      = &apiError{http.StatusConflict, model.CodeEmailExists}
	errEmailNotFound    = &apiError{http.StatusNotFound, model.CodeEmailNotFound}
	errEmailNotExists   = &apiError{http.StatusNotFound, model.CodeEmailNotExists}
	errInvalidPassword  = &apiError{http.StatusUnauthorized, model.CodeInvalidPassword}
	errInvalidToken     = &apiError{http.StatusBadRequest, model.CodeInvalidToken}
	errPasswordMismatch = &apiError{http.StatusBadRequest, model.CodePasswordMismatch}
	errTooManyAttempts  = &apiError{http.StatusTooManyRequests, model.CodeTooManyAttempts}
	errUnauthorized     = &apiError{http.StatusUnauthorized, model.CodeUnauthorized}
	errForbidden        = &apiError{http.StatusForbidden, model.CodeForbidden}
	errValidation       = &apiError{http.StatusBadRequest, model.CodeValidation}
)

func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, data)
}

func respondCreated(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusCreated, data)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// fail writes the error body for err. Anything that is not an *apiError is
// logged and reported as a 500 without details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	if !errors.As(err, &ae) {
		s.logger.Error("internal error",
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		respondJSON(w, http.StatusInternalServerError, model.ServerError{Message: "INTERNAL_ERROR"})
		return
	}
	respondJSON(w, ae.Status, model.ServerError{Message: ae.Code})
}

// decodeBody parses a JSON request body into dst and validates it.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errValidation
	}
	if err := validate.Struct(dst); err != nil {
		return errValidation
	}
	return nil
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}
