package auth

import (
	"context"
	"fmt"

	"github.com/plateshare/plateshare/internal/identity"
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Provider resolves signed tokens into sessions.
type Provider struct {
	secret  string
	revoked RevocationChecker
}

// NewProvider returns a Provider. revoked may be nil.
func NewProvider(secret string, revoked RevocationChecker) *Provider {
	return &Provider{secret: secret, revoked: revoked}
}

// Authenticate validates a token and checks it has not been revoked.
func (p *Provider) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := ValidateToken(p.secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrUnauthenticated, err)
	}

	if p.revoked != nil {
		revoked, err := p.revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", identity.ErrUnauthenticated)
		}
	}

	return claims, nil
}

// Resolve implements identity.Provider.
func (p *Provider) Resolve(ctx context.Context, token string) (identity.Session, error) {
	if token == "" {
		return identity.Anonymous(), nil
	}

	claims, err := p.Authenticate(ctx, token)
	if err != nil {
		return identity.Pending(), err
	}
	return identity.Resolved(claims.Identity()), nil
}
