package store

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/plateshare/plateshare/internal/model"
)

const requestTableName = "requests"

var requestTableColumns = []string{
	"id",
	"food_id",
	"requester_name",
	"requester_email",
	"requester_image",
	"location",
	"reason",
	"contact",
	"status",
	"donor_email",
	"created_at",
	"decided_at",
}

type requestRow struct {
	ID             string     `db:"id"`
	FoodID         string     `db:"food_id"`
	RequesterName  string     `db:"requester_name"`
	RequesterEmail string     `db:"requester_email"`
	RequesterImage string     `db:"requester_image"`
	Location       string     `db:"location"`
	Reason         string     `db:"reason"`
	Contact        string     `db:"contact"`
	Status         string     `db:"status"`
	DonorEmail     string     `db:"donor_email"`
	CreatedAt      time.Time  `db:"created_at"`
	DecidedAt      *time.Time `db:"decided_at"`
}

func (r requestRow) request() model.Request {
	return model.Request{
		ID:     r.ID,
		FoodID: r.FoodID,
		Requester: model.Identity{
			Name:  r.RequesterName,
			Email: r.RequesterEmail,
			Image: r.RequesterImage,
		},
		Location:   r.Location,
		Reason:     r.Reason,
		Contact:    r.Contact,
		Status:     model.RequestStatus(r.Status),
		DonorEmail: r.DonorEmail,
		CreatedAt:  r.CreatedAt,
		DecidedAt:  r.DecidedAt,
	}
}

// InsertRequest stores a new request, assigning its id and timestamp.
func (s *SQLStore) InsertRequest(ctx context.Context, r *model.Request) error {
	r.ID = NewID()
	r.CreatedAt = s.timestamp()
	if r.Status == "" {
		r.Status = model.RequestPending
	}

	_, err := s.exec(ctx, s.sb.
		Insert(requestTableName).
		Columns(requestTableColumns...).
		Values(
			r.ID, r.FoodID, r.Requester.Name, r.Requester.Email, r.Requester.Image,
			r.Location, r.Reason, r.Contact, string(r.Status), r.DonorEmail,
			r.CreatedAt, r.DecidedAt,
		))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return nil
}

// GetRequest returns a request by id.
func (s *SQLStore) GetRequest(ctx context.Context, id string) (*model.Request, error) {
	var r requestRow
	err := s.get(ctx, &r, s.sb.
		Select(requestTableColumns...).
		From(requestTableName).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("getting request %s: %w", id, err)
	}
	req := r.request()
	return &req, nil
}

// ListRequests yields requests in insertion order.
func (s *SQLStore) ListRequests(ctx context.Context, filter RequestFilter) iter.Seq2[model.Request, error] {
	q := s.sb.
		Select(requestTableColumns...).
		From(requestTableName).
		OrderBy("seq")
	if filter.FoodID != "" {
		q = q.Where(squirrel.Eq{"food_id": filter.FoodID})
	}
	if v := strings.TrimSpace(filter.Status); v != "" {
		q = q.Where("LOWER(status) = LOWER(?)", v)
	}
	if v := strings.TrimSpace(filter.DonorEmail); v != "" {
		q = q.Where("LOWER(donor_email) = LOWER(?)", v)
	}
	return scanSeq(ctx, s, q, "requests", requestRow.request)
}

// TransitionRequest moves a request from one status to another as a single
// conditional update, so concurrent decisions cannot both succeed.
func (s *SQLStore) TransitionRequest(ctx context.Context, id string, from, to model.RequestStatus) (*model.Request, error) {
	n, err := s.exec(ctx, s.sb.
		Update(requestTableName).
		Set("status", string(to)).
		Set("decided_at", s.timestamp()).
		Where(squirrel.Eq{"id": id, "status": string(from)}))
	if err != nil {
		return nil, fmt.Errorf("updating request %s: %w", id, err)
	}

	req, err := s.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("request %s is %s: %w", id, req.Status, model.ErrConflict)
	}
	return req, nil
}
