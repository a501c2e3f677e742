// Package session owns the authentication state: who is signed in and
// with which token. It knows nothing about storage; observers registered
// with Subscribe are told about every change and decide what to persist.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// Change says what happened to the session.
type Change int

const (
	// Changed means the session was created or its profile replaced.
	Changed Change = iota
	// Cleared means the user logged out.
	Cleared
)

func (c Change) String() string {
	switch c {
	case Changed:
		return "changed"
	case Cleared:
		return "cleared"
	}
	return "unknown"
}

// Listener observes session changes. It receives a copy of the new state.
type Listener func(model.Session, Change)

// Slice is the session state container. It is not safe for concurrent
// use; the application drives it from one goroutine.
type Slice struct {
	state     model.Session
	auth      Authenticator
	tokens    TokenIssuer
	delay     time.Duration
	listeners []Listener
}

// Option configures a Slice.
type Option func(*Slice)

// WithDelay sets the artificial latency before credentials are checked.
func WithDelay(d time.Duration) Option {
	return func(s *Slice) { s.delay = d }
}

// WithAuthenticator replaces the credential check.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Slice) { s.auth = a }
}

// WithTokenIssuer replaces the token source.
func WithTokenIssuer(t TokenIssuer) Option {
	return func(s *Slice) { s.tokens = t }
}

// New returns a slice starting from initial. A record that claims to be
// authenticated without a user or token (or the reverse) starts anonymous.
// Authenticator and TokenIssuer must be supplied through options.
func New(initial model.Session, opts ...Option) (*Slice, error) {
	s := &Slice{}
	for _, o := range opts {
		o(s)
	}
	if s.auth == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if s.tokens == nil {
		return nil, errors.New("session: token issuer is required")
	}
	if initial.Valid() && initial.IsAuthenticated {
		s.state = initial.Clone()
	}
	return s, nil
}

// Subscribe registers l for every future change.
func (s *Slice) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

func (s *Slice) notify(c Change) {
	for _, l := range s.listeners {
		l(s.state.Clone(), c)
	}
}

// State returns a copy of the current session.
func (s *Slice) State() model.Session { return s.state.Clone() }

// Authenticated reports whether someone is signed in.
func (s *Slice) Authenticated() bool { return s.state.IsAuthenticated }

// Owner is the signed-in user's email, or "".
func (s *Slice) Owner() string { return s.state.Owner() }

// Login waits for the configured delay, then checks the credentials. On
// success the session becomes authenticated as {DemoUsername, username}
// with a fresh token. Wrong credentials return false and change nothing.
// A cancelled ctx during the wait aborts without a state change.
func (s *Slice) Login(ctx context.Context, username, password string) (bool, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return false, ctx.Err()
		case <-t.C:
		}
	}

	if !s.auth.Verify(username, password) {
		return false, nil
	}
	token, err := s.tokens.Issue(username)
	if err != nil {
		return false, err
	}
	s.state = model.Session{
		IsAuthenticated: true,
		User:            &model.User{Username: DemoUsername, Email: username},
		Token:           token,
	}
	s.notify(Changed)
	return true, nil
}

// Logout returns to the anonymous state, whatever the current state is.
func (s *Slice) Logout() {
	s.state = model.Session{}
	s.notify(Cleared)
}

// UpdateProfile replaces the signed-in user wholesale. It does nothing and
// returns false when nobody is signed in.
func (s *Slice) UpdateProfile(u model.User) bool {
	if !s.state.IsAuthenticated {
		return false
	}
	s.state.User = &u
	s.notify(Changed)
	return true
}
