package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

var (
	dana = model.Identity{Name: "Dana", Email: "d@x.org"}
	rob  = model.Identity{Name: "Rob", Email: "r@x.org"}
)

func setup(t *testing.T) (*Ledger, *catalog.Catalog, *model.Food) {
	t.Helper()

	s := store.New(db.NewTestDB(t), db.SQLite)
	c := catalog.New(s)
	f, err := c.Create(context.Background(), dana, catalog.FoodInput{
		Name:           "Soup",
		ImageURL:       "http://x/y.jpg",
		Quantity:       "5",
		PickupLocation: "Main St 1",
		ExpireDate:     time.Now().AddDate(0, 0, 1).Format(model.DateLayout),
	})
	if err != nil {
		t.Fatalf("creating food: %v", err)
	}
	return New(s, c), c, f
}

func input() RequestInput {
	return RequestInput{Location: "Elm St 2", Reason: "family dinner", Contact: "555-0100"}
}

func TestCreateAndListByFood(t *testing.T) {
	l, _, f := setup(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		r, err := l.Create(ctx, f.ID, rob, input())
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if r.Status != model.RequestPending {
			t.Errorf("expected status 'pending', got %q", r.Status)
		}
		if r.DonorEmail != "d@x.org" {
			t.Errorf("expected donor email snapshot 'd@x.org', got %q", r.DonorEmail)
		}
		ids = append(ids, r.ID)
	}

	got, err := store.Collect(l.ListByFood(ctx, f.ID))
	if err != nil {
		t.Fatalf("ListByFood: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	for i := range got {
		if got[i].ID != ids[i] {
			t.Errorf("request %d: expected %q, got %q", i, ids[i], got[i].ID)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	l, _, f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		requester model.Identity
		mutate    func(*RequestInput)
		field     string
	}{
		{"blank location", rob, func(in *RequestInput) { in.Location = " " }, "location"},
		{"blank reason", rob, func(in *RequestInput) { in.Reason = "" }, "reason"},
		{"blank contact", rob, func(in *RequestInput) { in.Contact = "" }, "contact"},
		{"no requester", model.Identity{}, func(*RequestInput) {}, "requester"},
	}

	for _, tt := range tests {
		in := input()
		tt.mutate(&in)

		_, err := l.Create(ctx, f.ID, tt.requester, in)
		var ve *model.ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("%s: expected ValidationError on %q, got %v", tt.name, tt.field, err)
		}
	}
}

func TestCreateUnknownFood(t *testing.T) {
	l, _, _ := setup(t)

	_, err := l.Create(context.Background(), "missing", rob, input())
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateForDonatedFood(t *testing.T) {
	l, c, f := setup(t)
	ctx := context.Background()

	c.SetStatus(ctx, f.ID, model.FoodDonated)
	if _, err := l.Create(ctx, f.ID, rob, input()); err != nil {
		t.Errorf("expected request on donated food to be recorded, got %v", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	l, _, f := setup(t)
	ctx := context.Background()

	r, _ := l.Create(ctx, f.ID, rob, input())

	if _, err := l.UpdateStatus(ctx, r.ID, "d@x.org", model.RequestPending); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for 'pending', got %v", err)
	}
	if _, err := l.UpdateStatus(ctx, r.ID, "d@x.org", "done"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation for unknown status, got %v", err)
	}
	if _, err := l.UpdateStatus(ctx, r.ID, "r@x.org", model.RequestAccepted); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("expected ErrForbidden for requester, got %v", err)
	}
	if _, err := l.UpdateStatus(ctx, "missing", "d@x.org", model.RequestAccepted); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, err := l.UpdateStatus(ctx, r.ID, "D@X.org", model.RequestRejected)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != model.RequestRejected {
		t.Errorf("expected 'rejected', got %q", got.Status)
	}
}

func TestTerminalStatusIsLocked(t *testing.T) {
	for _, first := range []model.RequestStatus{model.RequestAccepted, model.RequestRejected} {
		l, _, f := setup(t)
		ctx := context.Background()

		r, _ := l.Create(ctx, f.ID, rob, input())
		if _, err := l.UpdateStatus(ctx, r.ID, "d@x.org", first); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", first, err)
		}

		for _, next := range []model.RequestStatus{model.RequestAccepted, model.RequestRejected} {
			_, err := l.UpdateStatus(ctx, r.ID, "d@x.org", next)
			if !errors.Is(err, model.ErrConflict) {
				t.Errorf("%s -> %s: expected ErrConflict, got %v", first, next, err)
			}
		}

		got, _ := l.Get(ctx, r.ID)
		if got.Status != first {
			t.Errorf("expected status to stay %q, got %q", first, got.Status)
		}
	}
}
