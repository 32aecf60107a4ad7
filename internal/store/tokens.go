package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

// RevokeToken adds a token's JTI to the revocation list.
func (s *SQLStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.exec(ctx, s.sb.
		Insert("revoked_tokens").
		Columns("jti", "expires_at").
		Values(jti, expiresAt.UTC()).
		Suffix("ON CONFLICT (jti) DO NOTHING"))
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	// Opportunistically clean up expired revocations.
	_, _ = s.exec(ctx, s.sb.
		Delete("revoked_tokens").
		Where(squirrel.Lt{"expires_at": s.timestamp()}))

	return nil
}

// IsTokenRevoked checks if a token's JTI has been revoked.
func (s *SQLStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	err := s.get(ctx, &count, s.sb.
		Select("COUNT(*)").
		From("revoked_tokens").
		Where(squirrel.Eq{"jti": jti}))
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return count > 0, nil
}
