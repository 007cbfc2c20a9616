package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/me/authkit/internal/store"
	"github.com/me/authkit/pkg/model"
)

// fakeClock is a manually advanced Clock. Due callbacks run on the goroutine
// calling Advance.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: len(c.timers), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every callback that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	for _, t := range due {
		t.f()
	}
}

// pending returns the number of timers neither stopped nor fired.
func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type transportCall struct {
	Method string
	Path   string
	Body   any
}

// fakeTransport answers requests from a handler and records every call.
type fakeTransport struct {
	mu      sync.Mutex
	calls   []transportCall
	handler func(method, path string, body any) (any, error)
}

func (f *fakeTransport) Get(ctx context.Context, path string, out any) error {
	return f.do("GET", path, nil, out)
}

func (f *fakeTransport) Post(ctx context.Context, path string, body, out any) error {
	return f.do("POST", path, body, out)
}

func (f *fakeTransport) do(method, path string, body, out any) error {
	f.mu.Lock()
	f.calls = append(f.calls, transportCall{Method: method, Path: path, Body: body})
	h := f.handler
	f.mu.Unlock()

	if h == nil {
		return errors.New("fake transport: no handler")
	}
	resp, err := h(method, path, body)
	if err != nil {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeTransport) lastCall() transportCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return transportCall{}
	}
	return f.calls[len(f.calls)-1]
}

// recordingNavigator remembers every route it was sent to.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

func (n *recordingNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.routes)
}

// failingStore wraps a MemoryStore and fails writes when failSet is true.
type failingStore struct {
	*store.MemoryStore
	failSet    bool
	failRemove bool
}

var errStoreDown = errors.New("store down")

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return errStoreDown
	}
	return s.MemoryStore.Set(ctx, key, value)
}

func (s *failingStore) Remove(ctx context.Context, key string) error {
	if s.failRemove {
		return errStoreDown
	}
	return s.MemoryStore.Remove(ctx, key)
}

func authResponse(email string, id int64, token string, exp time.Time, roles ...string) model.AuthResponse {
	if len(roles) == 0 {
		roles = []string{string(model.RoleUser)}
	}
	return model.AuthResponse{
		Email:               email,
		ID:                  id,
		Token:               token,
		TokenExpirationDate: exp,
		Role:                roles,
	}
}
