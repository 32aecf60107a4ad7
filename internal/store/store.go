package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/model"
)

// FoodFilter narrows a food listing. Zero values match everything.
type FoodFilter struct {
	Status     string
	DonorEmail string
}

// RequestFilter narrows a request listing. Zero values match everything.
type RequestFilter struct {
	FoodID     string
	Status     string
	DonorEmail string
}

// FoodBackend persists food items. Implementations assign ids and
// timestamps on insert and report missing records with model.ErrNotFound.
type FoodBackend interface {
	InsertFood(ctx context.Context, f *model.Food) error
	GetFood(ctx context.Context, id string) (*model.Food, error)
	GetFoodImage(ctx context.Context, id string) ([]byte, string, error)
	ListFoods(ctx context.Context, filter FoodFilter) iter.Seq2[model.Food, error]
	UpdateFood(ctx context.Context, f *model.Food) error
	SetFoodStatus(ctx context.Context, id string, status model.FoodStatus) error
	DeleteFood(ctx context.Context, id string) error
}

// RequestBackend persists requests.
type RequestBackend interface {
	InsertRequest(ctx context.Context, r *model.Request) error
	GetRequest(ctx context.Context, id string) (*model.Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) iter.Seq2[model.Request, error]
	// TransitionRequest moves a request from one status to another only if
	// it is still in from. Otherwise it fails with model.ErrConflict.
	TransitionRequest(ctx context.Context, id string, from, to model.RequestStatus) (*model.Request, error)
}

// SQLStore implements FoodBackend and RequestBackend on database/sql.
type SQLStore struct {
	db  *sql.DB
	sb  squirrel.StatementBuilderType
	now func() time.Time
}

// New returns a store over an open database of the given dialect.
func New(database *sql.DB, dialect db.Dialect) *SQLStore {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if dialect == db.Postgres {
		format = squirrel.Dollar
	}
	return &SQLStore{
		db:  database,
		sb:  squirrel.StatementBuilder.PlaceholderFormat(format),
		now: time.Now,
	}
}

func (s *SQLStore) timestamp() time.Time {
	return s.now().UTC()
}

// exec runs a statement and returns the number of affected rows.
func (s *SQLStore) exec(ctx context.Context, q squirrel.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// get scans a single row into dst, mapping no rows to model.ErrNotFound.
func (s *SQLStore) get(ctx context.Context, dst any, q squirrel.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	err = sqlscan.Get(ctx, s.db, dst, query, args...)
	if sqlscan.NotFound(err) {
		return model.ErrNotFound
	}
	return err
}

// scanSeq runs q on every iteration and yields each row converted by conv.
func scanSeq[R, T any](ctx context.Context, s *SQLStore, q squirrel.Sqlizer, what string, conv func(R) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		query, args, err := q.ToSql()
		if err != nil {
			yield(zero, fmt.Errorf("building %s query: %w", what, err))
			return
		}

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(zero, fmt.Errorf("listing %s: %w", what, err))
			return
		}
		defer rows.Close()

		rs := sqlscan.NewRowScanner(rows)
		for rows.Next() {
			var r R
			if err := rs.Scan(&r); err != nil {
				yield(zero, fmt.Errorf("scanning %s: %w", what, err))
				return
			}
			if !yield(conv(r), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, fmt.Errorf("listing %s: %w", what, err))
		}
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
