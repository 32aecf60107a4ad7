// Package ledger records pickup requests and their one-time donor decision.
package ledger

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// RequestInput is the requester-supplied content of a new request.
type RequestInput struct {
	Location string `json:"location"`
	Reason   string `json:"reason"`
	Contact  string `json:"contact"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	FoodID     string
	Status     string
	DonorEmail string
}

// FoodLookup resolves food ids. *catalog.Catalog satisfies it.
type FoodLookup interface {
	Get(ctx context.Context, id string) (*model.Food, error)
}

// Ledger is the request ledger.
type Ledger struct {
	requests store.RequestBackend
	foods    FoodLookup
}

// New returns a Ledger.
func New(requests store.RequestBackend, foods FoodLookup) *Ledger {
	return &Ledger{requests: requests, foods: foods}
}

// Create records a pending request from requester for a food item. The
// item's donor email is copied onto the request and never refreshed.
// Requests for items that are no longer available are still recorded.
func (l *Ledger) Create(ctx context.Context, foodID string, requester model.Identity, in RequestInput) (*model.Request, error) {
	r := &model.Request{
		FoodID: strings.TrimSpace(foodID),
		Requester: model.Identity{
			Name:  strings.TrimSpace(requester.Name),
			Email: strings.TrimSpace(requester.Email),
			Image: requester.Image,
		},
		Location: strings.TrimSpace(in.Location),
		Reason:   strings.TrimSpace(in.Reason),
		Contact:  strings.TrimSpace(in.Contact),
		Status:   model.RequestPending,
	}

	required := []struct {
		field, value string
	}{
		{"food_id", r.FoodID},
		{"requester", r.Requester.Email},
		{"location", r.Location},
		{"reason", r.Reason},
		{"contact", r.Contact},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, model.Invalid(f.field, "is required")
		}
	}

	food, err := l.foods.Get(ctx, r.FoodID)
	if err != nil {
		return nil, fmt.Errorf("resolving food for request: %w", err)
	}
	r.DonorEmail = food.Donor.Email

	if err := l.requests.InsertRequest(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Get returns a request by id.
func (l *Ledger) Get(ctx context.Context, id string) (*model.Request, error) {
	return l.requests.GetRequest(ctx, id)
}

// ListByFood returns the requests for a food item in insertion order.
func (l *Ledger) ListByFood(ctx context.Context, foodID string) iter.Seq2[model.Request, error] {
	return l.List(ctx, Filter{FoodID: foodID})
}

// List returns the requests matching filter in insertion order.
func (l *Ledger) List(ctx context.Context, filter Filter) iter.Seq2[model.Request, error] {
	return l.requests.ListRequests(ctx, store.RequestFilter{
		FoodID:     filter.FoodID,
		Status:     filter.Status,
		DonorEmail: filter.DonorEmail,
	})
}

// UpdateStatus records the donor's decision on a pending request. Only the
// donor named on the request may decide, and only once.
func (l *Ledger) UpdateStatus(ctx context.Context, id, ownerEmail string, next model.RequestStatus) (*model.Request, error) {
	if !next.Terminal() {
		return nil, model.Invalid("status", fmt.Sprintf("cannot move a request to %q", next))
	}

	r, err := l.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.SameEmail(r.DonorEmail, ownerEmail) {
		return nil, fmt.Errorf("request %s is for another donor's food: %w", id, model.ErrForbidden)
	}
	if r.Status.Terminal() {
		return nil, fmt.Errorf("request %s is already %s: %w", id, r.Status, model.ErrConflict)
	}

	return l.requests.TransitionRequest(ctx, id, model.RequestPending, next)
}
