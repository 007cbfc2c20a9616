// Package session owns the client's authenticated session: it logs in
// against the remote API, mirrors the session into a persistent store,
// restores it on startup and logs out automatically when the token expires.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/me/authkit/internal/logging"
	"github.com/me/authkit/internal/store"
	"github.com/me/authkit/pkg/model"
)

const (
	// DefaultStorageKey is the store key holding the serialized session.
	DefaultStorageKey = "userData"
	// RootRoute is where logout navigates to.
	RootRoute = "/"
)

// Remote API paths, relative to the configured base URL.
const (
	PathSignUp         = "auth/sign-up-user"
	PathLogin          = "auth/login"
	PathAdminLogin     = "admin/login"
	PathForgotPassword = "auth/forget-password"
	PathReset          = "auth/reset/"
	PathCustomers      = "admin/customers"
)

// Transport performs JSON request/response exchanges with the remote API.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Navigator redirects the application's visible view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Options configures a Manager. Transport and Store are required.
type Options struct {
	Transport  Transport
	Store      store.Store
	Navigator  Navigator
	Clock      Clock
	Logger     *slog.Logger
	StorageKey string
}

// Manager is the single owner of the current session.
//
// Every transition (commit, logout, expiry) is serialized. The Navigator and
// Subject subscribers run inside a transition and must not call back into
// the Manager's mutating methods.
type Manager struct {
	transport Transport
	store     store.Store
	nav       Navigator
	clock     Clock
	logger    *slog.Logger
	key       string
	sessions  *Subject

	mu    sync.Mutex
	timer Timer
	gen   uint64 // bumped whenever the armed timer changes; stale callbacks compare against it
}

// NewManager creates a Manager with no current session.
func NewManager(opts Options) (*Manager, error) {
	if opts.Transport == nil {
		return nil, errors.New("session: transport is required")
	}
	if opts.Store == nil {
		return nil, errors.New("session: store is required")
	}

	m := &Manager{
		transport: opts.Transport,
		store:     opts.Store,
		nav:       opts.Navigator,
		clock:     opts.Clock,
		logger:    logging.Component(opts.Logger, "session"),
		key:       opts.StorageKey,
		sessions:  NewSubject(),
	}
	if m.nav == nil {
		m.nav = NavigatorFunc(func(string) {})
	}
	if m.clock == nil {
		m.clock = SystemClock()
	}
	if m.key == "" {
		m.key = DefaultStorageKey
	}
	return m, nil
}

// Sessions returns the observable current-session slot.
func (m *Manager) Sessions() *Subject {
	return m.sessions
}

// Current returns a copy of the current session, or nil.
func (m *Manager) Current() *model.Session {
	return m.sessions.Current()
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	if s := m.sessions.Current(); s != nil {
		return s.Token
	}
	return ""
}

// SignUp creates an account. It does not log in.
func (m *Manager) SignUp(ctx context.Context, name, email, password string) error {
	req := model.SignUpRequest{Name: name, Email: email, Password: password}
	if err := m.transport.Post(ctx, PathSignUp, req, nil); err != nil {
		return MapError(err)
	}
	m.logger.Info("account created", "email", email)
	return nil
}

// Login authenticates an end user and commits the resulting session.
// Transport errors are returned unmapped.
func (m *Manager) Login(ctx context.Context, email, password string) (*model.Session, error) {
	return m.login(ctx, PathLogin, email, password)
}

// LoginAdmin is Login against the administrative endpoint.
func (m *Manager) LoginAdmin(ctx context.Context, email, password string) (*model.Session, error) {
	return m.login(ctx, PathAdminLogin, email, password)
}

func (m *Manager) login(ctx context.Context, path, email, password string) (*model.Session, error) {
	var resp model.AuthResponse
	if err := m.transport.Post(ctx, path, model.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if err := validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}

	sess := resp.Session()
	if err := m.commit(ctx, sess); err != nil {
		return sess.Clone(), err
	}
	return sess.Clone(), nil
}

// RestoreSession loads the stored session, if any, and commits it. An
// expired session is committed too; its timer fires immediately. Missing or
// malformed stored data yields (nil, nil).
func (m *Manager) RestoreSession(ctx context.Context) (*model.Session, error) {
	raw, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		return nil, fmt.Errorf("read stored session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	sess, err := DecodeRecord(raw)
	if err != nil {
		m.logger.Warn("ignoring stored session", "key", m.key, "error", err)
		return nil, nil
	}

	if err := m.commit(ctx, sess); err != nil {
		return sess.Clone(), err
	}
	return sess.Clone(), nil
}

// Logout clears the session, navigates to the root route, removes the
// stored copy and cancels the expiry timer. The in-memory state is always
// cleared; a store failure is still reported.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutLocked(ctx)
}

// Close cancels the expiry timer without logging out. The stored session
// stays in place for the next RestoreSession.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disarmLocked()
}

// ForgotPassword asks the server to send a reset link.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := m.transport.Post(ctx, PathForgotPassword, model.ForgotPasswordRequest{Email: email}, &out); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// VerifyResetToken checks that a password reset token is valid.
func (m *Manager) VerifyResetToken(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := m.transport.Get(ctx, PathReset+url.PathEscape(token), &out); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// ResetPassword sets a new password using a reset token.
func (m *Manager) ResetPassword(ctx context.Context, token, password, confirmPassword string) (json.RawMessage, error) {
	req := model.ResetPasswordRequest{Password: password, ConfirmPassword: confirmPassword}
	var out json.RawMessage
	if err := m.transport.Post(ctx, PathReset+url.PathEscape(token), req, &out); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// ListCustomers returns the admin customer listing. Errors are unmapped.
func (m *Manager) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var out []model.Customer
	if err := m.transport.Get(ctx, PathCustomers, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// commit publishes sess, arms its expiry timer and persists it.
func (m *Manager) commit(ctx context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := sess.Remaining(m.clock.Now())
	m.sessions.publish(sess)
	m.armLocked(remaining)

	m.logger.Info("session committed",
		"email", sess.Email,
		"user_id", sess.UserID,
		"roles", sess.Roles,
		"expires_in", remaining.Round(time.Second).String(),
	)

	data, err := EncodeRecord(sess)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

func (m *Manager) logoutLocked(ctx context.Context) error {
	m.sessions.publish(nil)
	m.nav.Navigate(RootRoute)
	err := m.store.Remove(ctx, m.key)
	m.disarmLocked()

	m.logger.Info("logged out")
	if err != nil {
		return fmt.Errorf("remove stored session: %w", err)
	}
	return nil
}

// armLocked replaces any pending timer with one firing after d.
func (m *Manager) armLocked(d time.Duration) {
	m.disarmLocked()
	if d < 0 {
		d = 0
	}
	gen := m.gen
	m.timer = m.clock.AfterFunc(d, func() { m.expire(gen) })
	m.logger.Debug("expiry timer armed", "in", d.String())
}

func (m *Manager) disarmLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.gen++
}

// expire is the timer callback. A callback from a replaced or cancelled
// timer finds a newer generation and does nothing.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.timer == nil {
		return
	}
	m.logger.Info("session expired")
	if err := m.logoutLocked(context.Background()); err != nil {
		m.logger.Warn("automatic logout", "error", err)
	}
}
