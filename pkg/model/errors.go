package model

// Error codes sent by the remote API in the "message" field of an error body.
const (
	CodeEmailExists      = "EMAIL_EXISTS"
	CodeEmailNotExists   = "EMAIL_NOT_EXISTS"
	CodeEmailNotFound    = "EMAIL_NOT_FOUND"
	CodeInvalidPassword  = "INVALID_PASSWORD"
	CodeInvalidToken     = "INVALID_TOKEN"
	CodePasswordMismatch = "PASSWORD_MISMATCH"
	CodeTooManyAttempts  = "TOO_MANY_ATTEMPTS"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeValidation       = "VALIDATION_ERROR"
)

// ServerError is the structured error body returned by the remote API.
type ServerError struct {
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return e.Message
}
