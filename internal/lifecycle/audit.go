package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

// auditConcurrency bounds the food lookups Audit runs at once.
const auditConcurrency = 8

// FindingKind classifies an audit finding.
type FindingKind string

const (
	// StaleAvailable is an accepted request whose food is still Available,
	// the trace of a partial failure.
	StaleAvailable FindingKind = "stale_available"
	// MultipleAccepted is a food item with more than one accepted request.
	MultipleAccepted FindingKind = "multiple_accepted"
	// MissingFood is an accepted request whose food item no longer exists.
	MissingFood FindingKind = "missing_food"
)

// Finding is one inconsistency between the ledger and the catalog.
type Finding struct {
	Kind       FindingKind `json:"kind" yaml:"kind"`
	FoodID     string      `json:"food_id" yaml:"food_id"`
	RequestIDs []string    `json:"request_ids" yaml:"request_ids"`
}

// Audit compares accepted requests with their food items. It only reads.
func (c *Coordinator) Audit(ctx context.Context) ([]Finding, error) {
	accepted, err := store.Collect(c.ledger.List(ctx, ledger.Filter{Status: string(model.RequestAccepted)}))
	if err != nil {
		return nil, fmt.Errorf("listing accepted requests: %w", err)
	}

	var order []string
	byFood := map[string][]string{}
	for _, r := range accepted {
		if _, seen := byFood[r.FoodID]; !seen {
			order = append(order, r.FoodID)
		}
		byFood[r.FoodID] = append(byFood[r.FoodID], r.ID)
	}

	foods, err := c.lookupFoods(ctx, order)
	if err != nil {
		return nil, err
	}

	var findings []Finding
	for i, foodID := range order {
		ids := byFood[foodID]

		food := foods[i]
		if food == nil {
			findings = append(findings, Finding{Kind: MissingFood, FoodID: foodID, RequestIDs: ids})
			continue
		}
		if food.Available() {
			findings = append(findings, Finding{Kind: StaleAvailable, FoodID: foodID, RequestIDs: ids})
		}
		if len(ids) > 1 {
			findings = append(findings, Finding{Kind: MultipleAccepted, FoodID: foodID, RequestIDs: ids})
		}
	}

	return findings, nil
}

// lookupFoods fetches the given food items concurrently. Missing items
// are left nil.
func (c *Coordinator) lookupFoods(ctx context.Context, ids []string) ([]*model.Food, error) {
	foods := make([]*model.Food, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(auditConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			food, err := c.catalog.Get(gctx, id)
			switch {
			case errors.Is(err, model.ErrNotFound):
				return nil
			case err != nil:
				return fmt.Errorf("auditing food %s: %w", id, err)
			}
			foods[i] = food
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return foods, nil
}

// Repair reapplies the food status update for a StaleAvailable finding.
// Other kinds need a human decision and are refused.
func (c *Coordinator) Repair(ctx context.Context, f Finding) error {
	if f.Kind != StaleAvailable {
		return model.Invalid("kind", fmt.Sprintf("%s findings cannot be repaired automatically", f.Kind))
	}
	if _, err := c.catalog.SetStatus(ctx, f.FoodID, model.FoodDonated); err != nil {
		return fmt.Errorf("repairing food %s: %w", f.FoodID, err)
	}

	c.log.WithField("food_id", f.FoodID).Info("Food marked donated by repair")
	return nil
}
