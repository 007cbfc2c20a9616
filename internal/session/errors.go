package session

import (
	"errors"

	"github.com/me/authkit/internal/transport"
	"github.com/me/authkit/pkg/model"
)

// UnknownErrorMessage is shown for every failure without a known error code.
const UnknownErrorMessage = "An unknown error occurred!"

// ErrIncompleteResponse is returned when a login response lacks a field
// required to build a Session. Nothing is committed in that case.
var ErrIncompleteResponse = errors.New("incomplete login response")

var messages = map[string]string{
	model.CodeEmailExists:     "Email already exists",
	model.CodeEmailNotExists:  "Email not Exists",
	model.CodeEmailNotFound:   "This email does not exist.",
	model.CodeInvalidPassword: "This password is not correct.",
	model.CodeInvalidToken:    "Token is Invalid",
}

// AuthError carries a user-facing message resolved from a transport failure.
type AuthError struct {
	// Code is the server-supplied error code; empty when none was sent.
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// MapError resolves err to an *AuthError. It never returns nil.
func MapError(err error) error {
	ae := &AuthError{Message: UnknownErrorMessage, Err: err}

	var he *transport.HTTPError
	if !errors.As(err, &he) || he.Server == nil {
		return ae
	}
	ae.Code = he.Server.Message
	if msg, ok := messages[ae.Code]; ok {
		ae.Message = msg
	}
	return ae
}

// Message returns the user-facing text for err: the mapped message for an
// *AuthError, otherwise err.Error().
func Message(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
