package store

import (
	"context"
	"errors"
	"testing"

	"github.com/plateshare/plateshare/internal/model"
)

func TestInsertAndListRequests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for range 3 {
		r := sampleRequest("food-1", "d@x.org")
		if err := s.InsertRequest(ctx, r); err != nil {
			t.Fatalf("InsertRequest: %v", err)
		}
		if r.Status != model.RequestPending {
			t.Errorf("expected status 'pending', got %q", r.Status)
		}
		ids = append(ids, r.ID)
	}
	s.InsertRequest(ctx, sampleRequest("food-2", "d@x.org"))

	got, err := Collect(s.ListRequests(ctx, RequestFilter{FoodID: "food-1"}))
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(got))
	}
	for i, r := range got {
		if r.ID != ids[i] {
			t.Errorf("request %d: expected id %q, got %q", i, ids[i], r.ID)
		}
	}

	inbox, _ := Collect(s.ListRequests(ctx, RequestFilter{DonorEmail: "D@x.org"}))
	if len(inbox) != 4 {
		t.Errorf("expected 4 requests for donor, got %d", len(inbox))
	}
}

func TestTransitionRequest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRequest("food-1", "d@x.org")
	s.InsertRequest(ctx, r)

	got, err := s.TransitionRequest(ctx, r.ID, model.RequestPending, model.RequestAccepted)
	if err != nil {
		t.Fatalf("TransitionRequest: %v", err)
	}
	if got.Status != model.RequestAccepted {
		t.Errorf("expected status 'accepted', got %q", got.Status)
	}
	if got.DecidedAt == nil {
		t.Error("expected decided_at to be set")
	}

	_, err = s.TransitionRequest(ctx, r.ID, model.RequestPending, model.RequestRejected)
	if !errors.Is(err, model.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	again, _ := s.GetRequest(ctx, r.ID)
	if again.Status != model.RequestAccepted {
		t.Errorf("expected status to stay 'accepted', got %q", again.Status)
	}

	accepted, _ := Collect(s.ListRequests(ctx, RequestFilter{Status: "ACCEPTED"}))
	if len(accepted) != 1 {
		t.Errorf("expected 1 accepted request, got %d", len(accepted))
	}
}

func TestTransitionRequestNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.TransitionRequest(context.Background(), "missing", model.RequestPending, model.RequestAccepted)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
