package model

import "time"

// SignUpRequest is the body of POST auth/sign-up-user.
type SignUpRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the body of POST auth/login and POST admin/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest is the body of POST auth/forget-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest is the body of POST auth/reset/{token}.
type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// AuthResponse is returned by both login endpoints.
type AuthResponse struct {
	Email               string    `json:"email" validate:"required"`
	ID                  int64     `json:"id" validate:"required"`
	Token               string    `json:"token" validate:"required"`
	TokenExpirationDate time.Time `json:"tokenExpirationDate" validate:"required"`
	Role                []string  `json:"role" validate:"required,min=1,dive,required"`
}

// Session converts the response into a Session.
func (r *AuthResponse) Session() *Session {
	return &Session{
		Email:     r.Email,
		UserID:    r.ID,
		Token:     r.Token,
		ExpiresAt: r.TokenExpirationDate,
		Roles:     append([]string(nil), r.Role...),
	}
}

// MessageResponse is the acknowledgement body returned by the password
// reset endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}
