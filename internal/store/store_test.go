package store

import (
	"testing"

	"github.com/Masterminds/squirrel"

	"github.com/plateshare/plateshare/internal/db"
)

func TestPlaceholderFormat(t *testing.T) {
	tests := []struct {
		dialect db.Dialect
		want    string
	}{
		{db.SQLite, "UPDATE foods SET status = ? WHERE id = ?"},
		{db.Postgres, "UPDATE foods SET status = $1 WHERE id = $2"},
	}

	for _, tt := range tests {
		s := New(nil, tt.dialect)
		query, args, err := s.sb.
			Update(foodTableName).
			Set("status", "Donated").
			Where(squirrel.Eq{"id": "f1"}).
			ToSql()
		if err != nil {
			t.Fatalf("%s: building query: %v", tt.dialect, err)
		}
		if query != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.dialect, tt.want, query)
		}
		if len(args) != 2 {
			t.Errorf("%s: expected 2 args, got %d", tt.dialect, len(args))
		}
	}
}
