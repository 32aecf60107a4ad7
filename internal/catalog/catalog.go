// Package catalog manages donated food listings: validation on create,
// donor-only edits, and the one-way Available to Donated status change.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// DefaultFeatured is the number of items Featured returns by default.
const DefaultFeatured = 6

// FoodInput is the donor-supplied content of a new listing. Exactly one of
// ImageURL and ImageData is expected.
type FoodInput struct {
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	ImageData      []byte `json:"-"`
	Quantity       string `json:"quantity"`
	Category       string `json:"category"`
	PickupLocation string `json:"pickup_location"`
	ExpireDate     string `json:"expire_date"`
	Notes          string `json:"notes"`
}

// FoodPatch lists the fields to change. Nil fields are left alone.
// Setting ImageURL drops inline image bytes and vice versa.
type FoodPatch struct {
	Name           *string `json:"name"`
	ImageURL       *string `json:"image_url"`
	ImageData      []byte  `json:"-"`
	Quantity       *string `json:"quantity"`
	Category       *string `json:"category"`
	PickupLocation *string `json:"pickup_location"`
	ExpireDate     *string `json:"expire_date"`
	Notes          *string `json:"notes"`
}

// Filter narrows List. Both fields match case-insensitively.
type Filter struct {
	Status     string
	DonorEmail string
}

// Catalog is the food catalog store.
type Catalog struct {
	foods store.FoodBackend
	now   func() time.Time
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the clock used to judge expiry dates.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// New returns a Catalog over a food backend.
func New(foods store.FoodBackend, opts ...Option) *Catalog {
	c := &Catalog{foods: foods, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create validates and stores a new listing for donor. The listing starts
// Available and carries a copy of the donor's identity.
func (c *Catalog) Create(ctx context.Context, donor model.Identity, in FoodInput) (*model.Food, error) {
	if strings.TrimSpace(donor.Email) == "" {
		return nil, model.Invalid("donor", "email is required")
	}

	f := &model.Food{
		Name:           strings.TrimSpace(in.Name),
		Quantity:       strings.TrimSpace(in.Quantity),
		Category:       strings.TrimSpace(in.Category),
		PickupLocation: strings.TrimSpace(in.PickupLocation),
		ExpireDate:     strings.TrimSpace(in.ExpireDate),
		Notes:          strings.TrimSpace(in.Notes),
		Status:         model.FoodAvailable,
		Donor: model.Identity{
			Name:  model.DisplayName(donor.Name),
			Email: strings.TrimSpace(donor.Email),
			Image: donor.Image,
		},
	}

	if err := validateFields(f); err != nil {
		return nil, err
	}
	if err := validateExpiry(f.ExpireDate, c.today()); err != nil {
		return nil, err
	}
	if err := setImage(f, in.ImageURL, in.ImageData); err != nil {
		return nil, err
	}

	if err := c.foods.InsertFood(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// Get returns a listing by id.
func (c *Catalog) Get(ctx context.Context, id string) (*model.Food, error) {
	return c.foods.GetFood(ctx, id)
}

// Image returns the inline image of a listing.
func (c *Catalog) Image(ctx context.Context, id string) ([]byte, string, error) {
	return c.foods.GetFoodImage(ctx, id)
}

// List returns the listings matching filter. Every iteration runs a fresh
// query.
func (c *Catalog) List(ctx context.Context, filter Filter) iter.Seq2[model.Food, error] {
	return c.foods.ListFoods(ctx, store.FoodFilter{
		Status:     filter.Status,
		DonorEmail: filter.DonorEmail,
	})
}

// Featured returns up to limit listings with the largest quantities,
// judged by the first number in the quantity text.
func (c *Catalog) Featured(ctx context.Context, limit int) ([]model.Food, error) {
	if limit <= 0 {
		limit = DefaultFeatured
	}

	foods, err := store.Collect(c.List(ctx, Filter{}))
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(foods, func(a, b model.Food) int {
		return cmp.Compare(b.QuantityHint(), a.QuantityHint())
	})
	if len(foods) > limit {
		foods = foods[:limit]
	}
	return foods, nil
}

// Update applies patch to a listing owned by ownerEmail.
func (c *Catalog) Update(ctx context.Context, id, ownerEmail string, patch FoodPatch) (*model.Food, error) {
	f, err := c.owned(ctx, id, ownerEmail)
	if err != nil {
		return nil, err
	}

	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	apply(&f.Name, patch.Name)
	apply(&f.Quantity, patch.Quantity)
	apply(&f.Category, patch.Category)
	apply(&f.PickupLocation, patch.PickupLocation)
	apply(&f.ExpireDate, patch.ExpireDate)
	apply(&f.Notes, patch.Notes)

	if err := validateFields(f); err != nil {
		return nil, err
	}
	if patch.ExpireDate != nil {
		if _, err := parseDate(f.ExpireDate); err != nil {
			return nil, err
		}
	}

	switch {
	case len(patch.ImageData) > 0:
		if err := setImage(f, "", patch.ImageData); err != nil {
			return nil, err
		}
	case patch.ImageURL != nil:
		if err := setImage(f, *patch.ImageURL, nil); err != nil {
			return nil, err
		}
	}

	if err := c.foods.UpdateFood(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// SetStatus moves a listing to status. Setting the current status is a
// no-op. A listing that has left Available never returns to it. No
// ownership check is made; callers decide who may do this.
func (c *Catalog) SetStatus(ctx context.Context, id string, status model.FoodStatus) (*model.Food, error) {
	target, ok := model.ParseFoodStatus(string(status))
	if !ok {
		return nil, model.Invalid("status", fmt.Sprintf("unknown food status %q", status))
	}

	f, err := c.foods.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == target {
		return f, nil
	}
	if target == model.FoodAvailable {
		return nil, fmt.Errorf("food %s is %s: %w", id, f.Status, model.ErrConflict)
	}

	if err := c.foods.SetFoodStatus(ctx, id, target); err != nil {
		return nil, err
	}
	f.Status = target
	return f, nil
}

// Remove deletes a listing owned by ownerEmail.
func (c *Catalog) Remove(ctx context.Context, id, ownerEmail string) error {
	if _, err := c.owned(ctx, id, ownerEmail); err != nil {
		return err
	}
	return c.foods.DeleteFood(ctx, id)
}

// owned fetches a listing and checks that ownerEmail is its donor.
func (c *Catalog) owned(ctx context.Context, id, ownerEmail string) (*model.Food, error) {
	f, err := c.foods.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}
	if !f.Donor.Matches(ownerEmail) {
		return nil, fmt.Errorf("food %s belongs to another donor: %w", id, model.ErrForbidden)
	}
	return f, nil
}

func (c *Catalog) today() time.Time {
	y, m, d := c.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
