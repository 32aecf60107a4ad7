// Package lifecycle coordinates donor decisions across the request ledger
// and the food catalog.
//
// Accepting a request is two writes: the request becomes accepted, then the
// food item becomes Donated. The writes are not atomic. When the second one
// fails the request stays accepted and Accept reports a PartialFailureError;
// nothing is retried or rolled back. Audit finds such leftovers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/metrics"
	"github.com/plateshare/plateshare/internal/model"
)

// DefaultStepTimeout bounds the food status update that follows an accept.
const DefaultStepTimeout = 10 * time.Second

// Ledger is the part of *ledger.Ledger the coordinator uses.
type Ledger interface {
	Get(ctx context.Context, id string) (*model.Request, error)
	List(ctx context.Context, filter ledger.Filter) iter.Seq2[model.Request, error]
	UpdateStatus(ctx context.Context, id, ownerEmail string, next model.RequestStatus) (*model.Request, error)
}

// Catalog is the part of *catalog.Catalog the coordinator uses.
type Catalog interface {
	Get(ctx context.Context, id string) (*model.Food, error)
	SetStatus(ctx context.Context, id string, status model.FoodStatus) (*model.Food, error)
}

// PartialFailureError reports an accepted request whose food item could
// not be marked donated.
type PartialFailureError struct {
	Request model.Request
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("request %s accepted but food %s was not marked donated: %v",
		e.Request.ID, e.Request.FoodID, e.Err)
}

// Unwrap exposes both model.ErrPartialFailure and the catalog error.
func (e *PartialFailureError) Unwrap() []error {
	return []error{model.ErrPartialFailure, e.Err}
}

// Coordinator runs accept and reject.
type Coordinator struct {
	ledger       Ledger
	catalog      Catalog
	log          logrus.FieldLogger
	singleWinner bool
	stepTimeout  time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = log }
}

// WithSingleWinner makes Accept refuse with model.ErrConflict when the food
// item has already left Available. By default such an accept goes through
// and the item simply stays Donated.
func WithSingleWinner(enabled bool) Option {
	return func(c *Coordinator) { c.singleWinner = enabled }
}

// WithStepTimeout bounds the food status update that follows an accept.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.stepTimeout = d
		}
	}
}

// New returns a Coordinator.
func New(l Ledger, c Catalog, opts ...Option) *Coordinator {
	co := &Coordinator{
		ledger:      l,
		catalog:     c,
		log:         logrus.StandardLogger(),
		stepTimeout: DefaultStepTimeout,
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Accept accepts a pending request and marks its food item Donated.
//
// Errors from the ledger are returned unchanged and leave everything as it
// was. If the food update fails afterwards, the accepted request is
// returned together with a *PartialFailureError. The food update runs even
// if ctx is cancelled once the request has been accepted.
func (c *Coordinator) Accept(ctx context.Context, requestID, ownerEmail string) (*model.Request, error) {
	if c.singleWinner {
		if err := c.checkStillAvailable(ctx, requestID, ownerEmail); err != nil {
			return nil, err
		}
	}

	req, err := c.ledger.UpdateStatus(ctx, requestID, ownerEmail, model.RequestAccepted)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecisions.WithLabelValues(string(model.RequestAccepted)).Inc()

	stepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.stepTimeout)
	defer cancel()

	if _, err := c.catalog.SetStatus(stepCtx, req.FoodID, model.FoodDonated); err != nil {
		metrics.PartialFailures.Inc()
		c.log.WithError(err).WithFields(logrus.Fields{
			"request_id": req.ID,
			"food_id":    req.FoodID,
		}).Error("Request accepted but food not marked donated")
		return req, &PartialFailureError{Request: *req, Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"food_id":    req.FoodID,
	}).Info("Request accepted")

	return req, nil
}

// Reject rejects a pending request. The food item is not touched.
func (c *Coordinator) Reject(ctx context.Context, requestID, ownerEmail string) (*model.Request, error) {
	req, err := c.ledger.UpdateStatus(ctx, requestID, ownerEmail, model.RequestRejected)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecisions.WithLabelValues(string(model.RequestRejected)).Inc()

	c.log.WithField("request_id", req.ID).Info("Request rejected")
	return req, nil
}

// checkStillAvailable refuses an accept for a food item that has already
// been donated. Missing records are left for the ledger to report.
func (c *Coordinator) checkStillAvailable(ctx context.Context, requestID, ownerEmail string) error {
	req, err := c.ledger.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if !model.SameEmail(req.DonorEmail, ownerEmail) || req.Status.Terminal() {
		return nil
	}

	food, err := c.catalog.Get(ctx, req.FoodID)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("checking food %s: %w", req.FoodID, err)
	}
	if !food.Available() {
		return fmt.Errorf("food %s is already %s: %w", food.ID, food.Status, model.ErrConflict)
	}
	return nil
}
