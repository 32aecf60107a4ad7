// Package identity carries the caller's session explicitly through
// context. A session is pending until the identity provider has answered,
// then either anonymous or resolved to an identity.
package identity

import (
	"context"
	"errors"

	"github.com/plateshare/plateshare/internal/model"
)

var (
	ErrPending         = errors.New("identity resolution pending")
	ErrUnauthenticated = errors.New("not authenticated")
)

// State is the resolution state of a session.
type State int

const (
	StatePending State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "pending"
	}
}

// Session is the tri-state answer of an identity provider.
type Session struct {
	state State
	who   model.Identity
}

// Pending returns a session whose identity is not known yet.
func Pending() Session {
	return Session{state: StatePending}
}

// Anonymous returns a resolved session with no identity.
func Anonymous() Session {
	return Session{state: StateAnonymous}
}

// Resolved returns a session for who.
func Resolved(who model.Identity) Session {
	return Session{state: StateAuthenticated, who: who}
}

func (s Session) State() State {
	return s.state
}

// Identity returns the identity and whether the session has one.
func (s Session) Identity() (model.Identity, bool) {
	return s.who, s.state == StateAuthenticated
}

// Require returns the identity or the reason there is none.
func (s Session) Require() (model.Identity, error) {
	switch s.state {
	case StateAuthenticated:
		return s.who, nil
	case StateAnonymous:
		return model.Identity{}, ErrUnauthenticated
	default:
		return model.Identity{}, ErrPending
	}
}

// Provider resolves a bearer credential into a session. An empty
// credential resolves to an anonymous session.
type Provider interface {
	Resolve(ctx context.Context, credential string) (Session, error)
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session in ctx. A context that was never given
// a session is pending.
func FromContext(ctx context.Context) Session {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok {
		return Pending()
	}
	return s
}
