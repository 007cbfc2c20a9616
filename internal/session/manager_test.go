package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/me/authkit/internal/store"
	"github.com/me/authkit/internal/transport"
	"github.com/me/authkit/pkg/model"
	"go.uber.org/goleak"
)

type testEnv struct {
	m     *Manager
	clock *fakeClock
	tr    *fakeTransport
	st    *store.MemoryStore
	nav   *recordingNavigator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock: newFakeClock(),
		tr:    &fakeTransport{},
		st:    store.NewMemoryStore(),
		nav:   &recordingNavigator{},
	}
	m, err := NewManager(Options{
		Transport: env.tr,
		Store:     env.st,
		Navigator: env.nav,
		Clock:     env.clock,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	env.m = m
	return env
}

// respondLogin makes every login endpoint answer with resp.
func (env *testEnv) respondLogin(resp model.AuthResponse) {
	env.tr.handler = func(method, path string, body any) (any, error) {
		return resp, nil
	}
}

func (env *testEnv) storedSession(t *testing.T) *model.Session {
	t.Helper()
	raw, ok, err := env.st.Get(context.Background(), DefaultStorageKey)
	if err != nil {
		t.Fatalf("store Get: %v", err)
	}
	if !ok {
		return nil
	}
	sess, err := DecodeRecord(raw)
	if err != nil {
		t.Fatalf("stored record invalid: %v", err)
	}
	return sess
}

func (env *testEnv) seed(t *testing.T, sess *model.Session) {
	t.Helper()
	raw, err := EncodeRecord(sess)
	if err != nil {
		t.Fatalf("EncodeRecord: %v", err)
	}
	if err := env.st.Set(context.Background(), DefaultStorageKey, raw); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}

func assertSameSession(t *testing.T, got *model.Session, want model.AuthResponse) {
	t.Helper()
	if got == nil {
		t.Fatal("session is nil")
	}
	if got.Email != want.Email || got.UserID != want.ID || got.Token != want.Token {
		t.Errorf("session = %+v, want fields of %+v", got, want)
	}
	if !got.ExpiresAt.Equal(want.TokenExpirationDate) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want.TokenExpirationDate)
	}
	if len(got.Roles) != len(want.Role) {
		t.Fatalf("Roles = %v, want %v", got.Roles, want.Role)
	}
	for i := range got.Roles {
		if got.Roles[i] != want.Role[i] {
			t.Errorf("Roles = %v, want %v", got.Roles, want.Role)
		}
	}
}

func TestNewManager_RequiresCollaborators(t *testing.T) {
	if _, err := NewManager(Options{Store: store.NewMemoryStore()}); err == nil {
		t.Error("expected error without transport")
	}
	if _, err := NewManager(Options{Transport: &fakeTransport{}}); err == nil {
		t.Error("expected error without store")
	}
}

func TestManager_LoginCommitsSession(t *testing.T) {
	env := newTestEnv(t)
	resp := authResponse("ann@example.com", 12, "tok-ann", env.clock.Now().Add(time.Hour), "user", "admin")
	env.respondLogin(resp)

	sess, err := env.m.Login(context.Background(), "ann@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	assertSameSession(t, sess, resp)
	assertSameSession(t, env.m.Current(), resp)
	assertSameSession(t, env.storedSession(t), resp)

	call := env.tr.lastCall()
	if call.Method != "POST" || call.Path != PathLogin {
		t.Errorf("call = %s %s, want POST %s", call.Method, call.Path, PathLogin)
	}
	req, ok := call.Body.(model.LoginRequest)
	if !ok || req.Email != "ann@example.com" || req.Password != "pw" {
		t.Errorf("request body = %#v", call.Body)
	}
	if env.clock.pending() != 1 {
		t.Errorf("pending timers = %d, want 1", env.clock.pending())
	}
	if env.m.Token() != "tok-ann" {
		t.Errorf("Token() = %q", env.m.Token())
	}
}

func TestManager_LoginAdminUsesAdminEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp := authResponse("root@example.com", 1, "tok-root", env.clock.Now().Add(time.Hour), "admin")
	env.respondLogin(resp)

	sess, err := env.m.LoginAdmin(context.Background(), "root@example.com", "pw")
	if err != nil {
		t.Fatalf("LoginAdmin: %v", err)
	}
	if !sess.IsAdmin() {
		t.Errorf("session roles = %v, want admin", sess.Roles)
	}
	if call := env.tr.lastCall(); call.Path != PathAdminLogin {
		t.Errorf("path = %q, want %q", call.Path, PathAdminLogin)
	}
	assertSameSession(t, env.storedSession(t), resp)
}

func TestManager_LoginErrorIsUnmapped(t *testing.T) {
	env := newTestEnv(t)
	httpErr := &transport.HTTPError{
		Method:     "POST",
		Path:       PathLogin,
		StatusCode: http.StatusUnauthorized,
		Server:     &model.ServerError{Message: model.CodeInvalidPassword},
	}
	env.tr.handler = func(method, path string, body any) (any, error) {
		return nil, httpErr
	}

	sess, err := env.m.Login(context.Background(), "ann@example.com", "wrong")
	if sess != nil {
		t.Errorf("session = %+v, want nil", sess)
	}
	if err != httpErr {
		t.Errorf("err = %v (%T), want the raw transport error", err, err)
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		t.Error("login error should not be mapped")
	}
	if env.m.Current() != nil {
		t.Error("current session should stay nil")
	}
	if env.st.Len() != 0 {
		t.Error("store should stay empty")
	}
}

func TestManager_LoginIncompleteResponse(t *testing.T) {
	env := newTestEnv(t)
	exp := env.clock.Now().Add(time.Hour)

	tests := []struct {
		name string
		resp model.AuthResponse
	}{
		{"no token", authResponse("a@example.com", 1, "", exp)},
		{"no email", authResponse("", 1, "tok", exp)},
		{"no id", authResponse("a@example.com", 0, "tok", exp)},
		{"no expiry", authResponse("a@example.com", 1, "tok", time.Time{})},
		{"empty role", model.AuthResponse{Email: "a@example.com", ID: 1, Token: "tok", TokenExpirationDate: exp, Role: []string{}}},
		{"blank role", model.AuthResponse{Email: "a@example.com", ID: 1, Token: "tok", TokenExpirationDate: exp, Role: []string{""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.respondLogin(tt.resp)
			_, err := env.m.Login(context.Background(), "a@example.com", "pw")
			if !errors.Is(err, ErrIncompleteResponse) {
				t.Fatalf("err = %v, want ErrIncompleteResponse", err)
			}
			if env.m.Current() != nil || env.st.Len() != 0 || env.clock.pending() != 0 {
				t.Error("incomplete response must not commit anything")
			}
		})
	}
}

func TestManager_RestoreEmptyStoreIsNoop(t *testing.T) {
	env := newTestEnv(t)

	var seen []*model.Session
	env.m.Sessions().Subscribe(func(s *model.Session) { seen = append(seen, s) })

	for i := 0; i < 2; i++ {
		sess, err := env.m.RestoreSession(context.Background())
		if err != nil || sess != nil {
			t.Fatalf("RestoreSession = (%v, %v), want (nil, nil)", sess, err)
		}
	}
	if len(seen) != 1 {
		t.Errorf("subscriber saw %d values, want only the initial nil", len(seen))
	}
	if env.st.Len() != 0 || env.clock.pending() != 0 || env.nav.count() != 0 {
		t.Error("restore on empty store must not change anything")
	}
}

func TestManager_RestoreCommitsStoredSession(t *testing.T) {
	env := newTestEnv(t)
	stored := &model.Session{
		Email:     "ann@example.com",
		UserID:    12,
		Token:     "tok-ann",
		ExpiresAt: env.clock.Now().Add(time.Hour),
		Roles:     []string{"user"},
	}
	env.seed(t, stored)

	sess, err := env.m.RestoreSession(context.Background())
	if err != nil {
		t.Fatalf("RestoreSession: %v", err)
	}
	if sess == nil || sess.Token != "tok-ann" || env.m.Token() != "tok-ann" {
		t.Fatalf("restored session = %+v", sess)
	}

	env.clock.Advance(59 * time.Minute)
	if env.m.Current() == nil || env.nav.count() != 0 {
		t.Fatal("session logged out before expiry")
	}

	env.clock.Advance(time.Minute)
	if env.m.Current() != nil {
		t.Error("session should be cleared at expiry")
	}
	if env.st.Len() != 0 {
		t.Error("store should be empty after expiry")
	}
	if env.nav.count() != 1 || env.nav.routes[0] != RootRoute {
		t.Errorf("navigations = %v, want [/]", env.nav.routes)
	}
}

func TestManager_RestoreThenLogout(t *testing.T) {
	offsets := []time.Duration{-24 * time.Hour, 0, time.Second, 30 * 24 * time.Hour}

	for _, off := range offsets {
		t.Run(off.String(), func(t *testing.T) {
			env := newTestEnv(t)
			env.seed(t, &model.Session{
				Email:     "ann@example.com",
				UserID:    12,
				Token:     "tok",
				ExpiresAt: env.clock.Now().Add(off),
				Roles:     []string{"user"},
			})

			if _, err := env.m.RestoreSession(context.Background()); err != nil {
				t.Fatalf("RestoreSession: %v", err)
			}
			if err := env.m.Logout(context.Background()); err != nil {
				t.Fatalf("Logout: %v", err)
			}

			if env.m.Current() != nil {
				t.Error("current session should be nil")
			}
			if env.st.Len() != 0 {
				t.Error("store should be empty")
			}
			if env.clock.pending() != 0 {
				t.Error("timer should be cancelled")
			}

			// Nothing fires afterwards.
			env.clock.Advance(31 * 24 * time.Hour)
			if env.nav.count() != 1 {
				t.Errorf("navigations = %d, want 1", env.nav.count())
			}
		})
	}
}

func TestManager_RestoreMalformedRecord(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{oops"},
		{"null", "null"},
		{"missing token", `{"email":"a@example.com","id":1,"tokenExpirationDate":"2030-01-01T00:00:00Z","role":["user"]}`},
		{"empty token", `{"email":"a@example.com","id":1,"token":"","tokenExpirationDate":"2030-01-01T00:00:00Z","role":["user"]}`},
		{"no roles", `{"email":"a@example.com","id":1,"token":"t","tokenExpirationDate":"2030-01-01T00:00:00Z","role":[]}`},
		{"bad date", `{"email":"a@example.com","id":1,"token":"t","tokenExpirationDate":"tomorrow","role":["user"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.st.Set(context.Background(), DefaultStorageKey, tt.raw)

			sess, err := env.m.RestoreSession(context.Background())
			if err != nil || sess != nil {
				t.Fatalf("RestoreSession = (%v, %v), want (nil, nil)", sess, err)
			}
			if env.m.Current() != nil || env.clock.pending() != 0 {
				t.Error("malformed record must not be committed")
			}
		})
	}
}

func TestManager_ExpiredSessionLogsOutImmediately(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, &model.Session{
		Email:     "ann@example.com",
		UserID:    12,
		Token:     "tok",
		ExpiresAt: env.clock.Now().Add(-5 * time.Minute),
		Roles:     []string{"user"},
	})

	if _, err := env.m.RestoreSession(context.Background()); err != nil {
		t.Fatalf("RestoreSession: %v", err)
	}
	if env.clock.pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", env.clock.pending())
	}

	env.clock.Advance(0)

	if env.m.Current() != nil {
		t.Error("current session should be nil")
	}
	if env.st.Len() != 0 {
		t.Error("store should be empty")
	}
	if env.nav.count() != 1 || env.nav.routes[0] != RootRoute {
		t.Errorf("navigations = %v, want [/]", env.nav.routes)
	}
	if env.clock.pending() != 0 {
		t.Error("no timer should remain armed")
	}
}

func TestManager_RecommitCancelsPreviousTimer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	start := env.clock.Now()

	env.respondLogin(authResponse("a@example.com", 1, "tok-a", start.Add(1000*time.Millisecond)))
	if _, err := env.m.Login(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("Login A: %v", err)
	}
	env.respondLogin(authResponse("b@example.com", 2, "tok-b", start.Add(2000*time.Millisecond)))
	if _, err := env.m.Login(ctx, "b@example.com", "pw"); err != nil {
		t.Fatalf("Login B: %v", err)
	}
	if env.clock.pending() != 1 {
		t.Fatalf("pending timers = %d, want 1", env.clock.pending())
	}

	env.clock.Advance(1000 * time.Millisecond)
	if cur := env.m.Current(); cur == nil || cur.Token != "tok-b" {
		t.Fatalf("current = %+v, want session B", cur)
	}
	if env.nav.count() != 0 {
		t.Fatal("A's timer fired after being replaced")
	}

	env.clock.Advance(1000 * time.Millisecond)
	if env.m.Current() != nil {
		t.Error("B should expire at 2000ms")
	}
	if env.nav.count() != 1 {
		t.Errorf("navigations = %d, want 1", env.nav.count())
	}
}

func TestManager_StaleCallbackIgnored(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.respondLogin(authResponse("a@example.com", 1, "tok-a", env.clock.Now().Add(time.Second)))
	if _, err := env.m.Login(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("Login A: %v", err)
	}
	env.clock.mu.Lock()
	staleA := env.clock.timers[0].f
	env.clock.mu.Unlock()

	env.respondLogin(authResponse("b@example.com", 2, "tok-b", env.clock.Now().Add(time.Hour)))
	if _, err := env.m.Login(ctx, "b@example.com", "pw"); err != nil {
		t.Fatalf("Login B: %v", err)
	}

	// A's callback was already running when it got replaced.
	staleA()

	if cur := env.m.Current(); cur == nil || cur.Token != "tok-b" {
		t.Errorf("current = %+v, want session B untouched", cur)
	}
	if env.nav.count() != 0 {
		t.Error("stale callback must not log out")
	}
}

func TestManager_LogoutCancelsTimer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.respondLogin(authResponse("a@example.com", 1, "tok", env.clock.Now().Add(time.Minute)))

	if _, err := env.m.Login(ctx, "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := env.m.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	env.clock.Advance(time.Hour)
	if env.nav.count() != 1 {
		t.Errorf("navigations = %d, want exactly the explicit logout", env.nav.count())
	}
	if env.m.Token() != "" {
		t.Errorf("Token() = %q after logout", env.m.Token())
	}
}

func TestManager_LogoutWithoutSession(t *testing.T) {
	env := newTestEnv(t)
	if err := env.m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if env.nav.count() != 1 {
		t.Errorf("navigations = %d, want 1", env.nav.count())
	}
}

func TestManager_SubscribersSeeTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []string
	env.m.Sessions().Subscribe(func(s *model.Session) {
		mu.Lock()
		defer mu.Unlock()
		if s == nil {
			seen = append(seen, "nil")
			return
		}
		seen = append(seen, s.Token)
	})

	env.respondLogin(authResponse("a@example.com", 1, "tok-a", env.clock.Now().Add(time.Minute)))
	env.m.Login(ctx, "a@example.com", "pw")
	env.respondLogin(authResponse("b@example.com", 2, "tok-b", env.clock.Now().Add(time.Minute)))
	env.m.Login(ctx, "b@example.com", "pw")
	env.clock.Advance(time.Minute)

	want := []string{"nil", "tok-a", "tok-b", "nil"}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("seen = %v, want %v", seen, want)
		}
	}
}

func TestManager_SignUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tr.handler = func(method, path string, body any) (any, error) {
		return map[string]string{"message": "created"}, nil
	}
	if err := env.m.SignUp(ctx, "Ann", "ann@example.com", "pw"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	call := env.tr.lastCall()
	if call.Path != PathSignUp {
		t.Errorf("path = %q, want %q", call.Path, PathSignUp)
	}
	if req, ok := call.Body.(model.SignUpRequest); !ok || req.Name != "Ann" || req.Email != "ann@example.com" {
		t.Errorf("body = %#v", call.Body)
	}
	if env.m.Current() != nil || env.st.Len() != 0 {
		t.Error("sign-up must not touch session state")
	}

	env.tr.handler = func(method, path string, body any) (any, error) {
		return nil, &transport.HTTPError{StatusCode: http.StatusConflict, Server: &model.ServerError{Message: model.CodeEmailExists}}
	}
	err := env.m.SignUp(ctx, "Ann", "ann@example.com", "pw")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %T %v, want *AuthError", err, err)
	}
	if ae.Error() != "Email already exists" {
		t.Errorf("message = %q", ae.Error())
	}
	if transport.StatusCode(err) != http.StatusConflict {
		t.Errorf("mapped error should unwrap to the transport error")
	}
}

func TestManager_PasswordResetFlows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tr.handler = func(method, path string, body any) (any, error) {
		return map[string]string{"message": "ok"}, nil
	}

	out, err := env.m.ForgotPassword(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if string(out) != `{"message":"ok"}` {
		t.Errorf("ForgotPassword response = %s", out)
	}
	if call := env.tr.lastCall(); call.Method != "POST" || call.Path != PathForgotPassword {
		t.Errorf("call = %s %s", call.Method, call.Path)
	}

	if _, err := env.m.VerifyResetToken(ctx, "abc/def"); err != nil {
		t.Fatalf("VerifyResetToken: %v", err)
	}
	if call := env.tr.lastCall(); call.Method != "GET" || call.Path != "auth/reset/abc%2Fdef" {
		t.Errorf("call = %s %s, want GET auth/reset/abc%%2Fdef", call.Method, call.Path)
	}

	if _, err := env.m.ResetPassword(ctx, "tok1", "new", "new"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	call := env.tr.lastCall()
	if call.Method != "POST" || call.Path != "auth/reset/tok1" {
		t.Errorf("call = %s %s", call.Method, call.Path)
	}
	if req, ok := call.Body.(model.ResetPasswordRequest); !ok || req.Password != "new" || req.ConfirmPassword != "new" {
		t.Errorf("body = %#v", call.Body)
	}

	env.tr.handler = func(method, path string, body any) (any, error) {
		return nil, &transport.HTTPError{StatusCode: http.StatusBadRequest, Server: &model.ServerError{Message: model.CodeInvalidToken}}
	}
	for name, call := range map[string]func() error{
		"verify": func() error { _, err := env.m.VerifyResetToken(ctx, "bad"); return err },
		"reset":  func() error { _, err := env.m.ResetPassword(ctx, "bad", "a", "a"); return err },
	} {
		if err := call(); err == nil || err.Error() != "Token is Invalid" {
			t.Errorf("%s: err = %v, want %q", name, err, "Token is Invalid")
		}
	}

	env.tr.handler = func(method, path string, body any) (any, error) {
		return nil, &transport.HTTPError{StatusCode: http.StatusNotFound, Server: &model.ServerError{Message: model.CodeEmailNotExists}}
	}
	if _, err := env.m.ForgotPassword(ctx, "ghost@example.com"); err == nil || err.Error() != "Email not Exists" {
		t.Errorf("err = %v, want %q", err, "Email not Exists")
	}
}

func TestManager_ListCustomers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.tr.handler = func(method, path string, body any) (any, error) {
		return []model.Customer{{ID: 1, Name: "Ann", Email: "ann@example.com"}, {ID: 2, Name: "Bob", Email: "bob@example.com"}}, nil
	}
	customers, err := env.m.ListCustomers(ctx)
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(customers) != 2 || customers[1].Email != "bob@example.com" {
		t.Errorf("customers = %+v", customers)
	}
	if call := env.tr.lastCall(); call.Method != "GET" || call.Path != PathCustomers {
		t.Errorf("call = %s %s", call.Method, call.Path)
	}

	httpErr := &transport.HTTPError{StatusCode: http.StatusForbidden, Server: &model.ServerError{Message: model.CodeForbidden}}
	env.tr.handler = func(method, path string, body any) (any, error) { return nil, httpErr }
	if _, err := env.m.ListCustomers(ctx); err != httpErr {
		t.Errorf("err = %v, want raw transport error", err)
	}
}

func TestManager_CommitStoreFailure(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), failSet: true}
	clock := newFakeClock()
	tr := &fakeTransport{handler: func(method, path string, body any) (any, error) {
		return authResponse("a@example.com", 1, "tok", clock.Now().Add(time.Hour)), nil
	}}
	m, err := NewManager(Options{Transport: tr, Store: st, Clock: clock, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}

	sess, err := m.Login(context.Background(), "a@example.com", "pw")
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want errStoreDown", err)
	}
	if sess == nil || m.Current() == nil {
		t.Error("in-memory session should remain committed")
	}
	if clock.pending() != 1 {
		t.Error("expiry timer should be armed")
	}
}

func TestManager_LogoutStoreFailure(t *testing.T) {
	st := &failingStore{MemoryStore: store.NewMemoryStore(), failRemove: true}
	clock := newFakeClock()
	tr := &fakeTransport{handler: func(method, path string, body any) (any, error) {
		return authResponse("a@example.com", 1, "tok", clock.Now().Add(time.Hour)), nil
	}}
	m, err := NewManager(Options{Transport: tr, Store: st, Clock: clock, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := m.Logout(context.Background()); !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want errStoreDown", err)
	}
	if m.Current() != nil {
		t.Error("session should be cleared even when the store fails")
	}
	if clock.pending() != 0 {
		t.Error("timer should be cancelled even when the store fails")
	}
}

func TestManager_CloseKeepsStoredSession(t *testing.T) {
	env := newTestEnv(t)
	env.respondLogin(authResponse("a@example.com", 1, "tok", env.clock.Now().Add(time.Minute)))
	if _, err := env.m.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	env.m.Close()
	env.clock.Advance(time.Hour)

	if env.nav.count() != 0 {
		t.Error("Close must not log out")
	}
	if env.storedSession(t) == nil {
		t.Error("stored session should survive Close")
	}
}

func TestManager_CustomStorageKey(t *testing.T) {
	clock := newFakeClock()
	st := store.NewMemoryStore()
	tr := &fakeTransport{handler: func(method, path string, body any) (any, error) {
		return authResponse("a@example.com", 1, "tok", clock.Now().Add(time.Hour)), nil
	}}
	m, err := NewManager(Options{Transport: tr, Store: st, Clock: clock, StorageKey: "shopUser", Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, ok, _ := st.Get(context.Background(), "shopUser"); !ok {
		t.Error("session not stored under custom key")
	}
	if _, ok, _ := st.Get(context.Background(), DefaultStorageKey); ok {
		t.Error("session stored under default key")
	}
}

func TestManager_SystemClockExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)

	st := store.NewMemoryStore()
	tr := &fakeTransport{handler: func(method, path string, body any) (any, error) {
		return authResponse("a@example.com", 1, "tok", time.Now().Add(20*time.Millisecond)), nil
	}}
	loggedOut := make(chan struct{})
	m, err := NewManager(Options{
		Transport: tr,
		Store:     st,
		Navigator: NavigatorFunc(func(string) { close(loggedOut) }),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Login(context.Background(), "a@example.com", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	select {
	case <-loggedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("automatic logout did not happen")
	}
	// Close waits for the in-flight expiry to finish.
	m.Close()
	if m.Current() != nil || st.Len() != 0 {
		t.Error("expiry should leave no session behind")
	}
}
