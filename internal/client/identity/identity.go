// Package identity carries the current authenticated identity and notifies
// subscribers when it appears, changes or goes away.
package identity

import (
	"sync"
)

// Identity is an authenticated user. Token is the bearer access token sent
// to the gateway server.
type Identity struct {
	UID   string
	Email string
	Token string
}

// Signal holds the current identity. The zero value is ready to use and
// has no identity.
type Signal struct {
	mu      sync.RWMutex
	current *Identity
	subs    map[int]func(*Identity)
	nextSub int
}

func NewSignal() *Signal {
	return &Signal{}
}

// Current returns a copy of the current identity or nil.
func (s *Signal) Current() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	id := *s.current
	return &id
}

// Token returns the current access token, or "" without an identity.
func (s *Signal) Token() string {
	if id := s.Current(); id != nil {
		return id.Token
	}
	return ""
}

// Set replaces the current identity (nil clears it) and calls every
// subscriber synchronously, in subscription order, with the identity
// this call set.
func (s *Signal) Set(id *Identity) {
	var set *Identity
	if id != nil {
		cp := *id
		set = &cp
	}

	s.mu.Lock()
	s.current = set
	subs := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range subs {
		var arg *Identity
		if set != nil {
			cp := *set
			arg = &cp
		}
		fn(arg)
	}
}

// Clear is Set(nil).
func (s *Signal) Clear() { s.Set(nil) }

// Subscribe registers fn and returns a function that removes it.
func (s *Signal) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(*Identity))
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Signal) snapshotLocked() []func(*Identity) {
	out := make([]func(*Identity), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}
