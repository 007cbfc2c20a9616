package mockapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/me/authkit/pkg/model"
)

type healthResponse struct {
	Status    string `json:"status"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, healthResponse{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	acct, err := s.dir.create(req.Name, req.Email, req.Password, []string{string(model.RoleUser)}, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("account created", "email", acct.email, "id", acct.id)
	respondCreated(w, model.MessageResponse{Message: "User created successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, false)
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, true)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, admin bool) {
	var req model.LoginRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if !s.allowLogin(req.Email) {
		s.fail(w, r, errTooManyAttempts)
		return
	}
	acct, err := s.dir.verify(req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if admin && !acct.isAdmin() {
		s.fail(w, r, errForbidden)
		return
	}

	token, expires := s.dir.issue(acct, s.now(), s.config.TokenTTL)
	s.logger.Info("login", "email", acct.email, "admin", admin, "expires", expires)
	respondOK(w, model.AuthResponse{
		Email:               acct.email,
		ID:                  acct.id,
		Token:               token,
		TokenExpirationDate: expires,
		Role:                append([]string(nil), acct.roles...),
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	token, err := s.dir.issueReset(req.Email, s.now(), ResetTokenTTL)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.resetMu.Lock()
	s.lastResets[normalizeEmail(req.Email)] = token
	s.resetMu.Unlock()

	s.logger.Info("password reset requested", "email", normalizeEmail(req.Email), "reset_token", token)
	respondOK(w, model.MessageResponse{Message: "Password reset link sent"})
}

func (s *Server) handleVerifyReset(w http.ResponseWriter, r *http.Request) {
	if _, err := s.dir.checkReset(chi.URLParam(r, "token"), s.now()); err != nil {
		s.fail(w, r, err)
		return
	}
	respondOK(w, model.MessageResponse{Message: "Token is valid"})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := s.dir.checkReset(token, s.now()); err != nil {
		s.fail(w, r, err)
		return
	}

	var req model.ResetPasswordRequest
	if err := decodeBody(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.Password != req.ConfirmPassword {
		s.fail(w, r, errPasswordMismatch)
		return
	}

	acct, err := s.dir.resetPassword(token, req.Password, s.now())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("password reset", "email", acct.email)
	respondOK(w, model.MessageResponse{Message: "Password updated successfully"})
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers := s.dir.customers()
	if acct := accountFromContext(r.Context()); acct != nil {
		s.logger.Debug("customers listed", "admin", acct.email, "count", len(customers))
	}
	respondOK(w, customers)
}
