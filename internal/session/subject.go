package session

import (
	"sync"

	"github.com/me/authkit/pkg/model"
)

// Subject holds the current session and notifies subscribers of every
// change, including the change to no session (nil).
//
// Subscribers run synchronously in publish order. They may call Current but
// must not call Subscribe or any mutating Manager method.
type Subject struct {
	deliver sync.Mutex // serializes deliveries so every subscriber sees one order

	mu      sync.Mutex
	current *model.Session
	subs    []subscription
	nextID  uint64
}

type subscription struct {
	id uint64
	fn func(*model.Session)
}

// NewSubject returns a Subject with no current session.
func NewSubject() *Subject {
	return &Subject{}
}

// Current returns a copy of the current session, or nil.
func (s *Subject) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Subscribe registers fn and immediately delivers the current value to it.
// The returned function unregisters fn; it is safe to call more than once.
func (s *Subject) Subscribe(fn func(*model.Session)) (unsubscribe func()) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	cur := s.current.Clone()
	s.mu.Unlock()

	fn(cur)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// publish replaces the current session and notifies every subscriber.
func (s *Subject) publish(sess *model.Session) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.current = sess.Clone()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(sess.Clone())
	}
}
