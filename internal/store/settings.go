package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/Masterminds/squirrel"
)

const tokenSecretKey = "token_secret"

// TokenSecret retrieves the token signing secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
// Insert-if-absent followed by a re-select keeps concurrent startups consistent.
func (s *SQLStore) TokenSecret(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := s.exec(ctx, s.sb.
		Insert("settings").
		Columns("key", "value").
		Values(tokenSecretKey, candidate).
		Suffix("ON CONFLICT (key) DO NOTHING"))
	if err != nil {
		return "", fmt.Errorf("storing token secret: %w", err)
	}

	var secret string
	err = s.get(ctx, &secret, s.sb.
		Select("value").
		From("settings").
		Where(squirrel.Eq{"key": tokenSecretKey}))
	if err != nil {
		return "", fmt.Errorf("querying token secret: %w", err)
	}

	return secret, nil
}
