// Package cache keeps a Redis projection of food items in front of a
// food backend. The backend stays authoritative: entries are filled on
// read and dropped after every mutation, whether or not it succeeded.
//
// Every drop also bumps a per-item generation. A read only fills the
// entry if the generation it saw before reading the backend is still
// current, so a slow read never caches a record a mutation has replaced.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/metrics"
	"github.com/plateshare/plateshare/internal/model"
	"github.com/plateshare/plateshare/internal/store"
)

const (
	keyPrefix        = "plateshare:food:"
	generationPrefix = "plateshare:food-gen:"
)

// generationTTL outlives any single read of the backend.
const generationTTL = 24 * time.Hour

// invalidateTimeout bounds the delete issued after a mutation.
const invalidateTimeout = 3 * time.Second

// NewClient builds a Redis client.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
}

// FoodCache is a read-through store.FoodBackend.
type FoodCache struct {
	next   store.FoodBackend
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewFoodCache wraps next with a Redis read-through cache.
func NewFoodCache(next store.FoodBackend, client *redis.Client, ttl time.Duration, log logrus.FieldLogger) *FoodCache {
	return &FoodCache{next: next, client: client, ttl: ttl, log: log}
}

var errStaleFill = errors.New("food changed while it was being read")

func key(id string) string {
	return keyPrefix + id
}

func generationKey(id string) string {
	return generationPrefix + id
}

// generation reads a generation counter. A missing counter is zero.
func generation(cmd *redis.StringCmd) (int64, error) {
	n, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// GetFood serves from Redis when possible. Redis errors fall through to
// the backend.
func (c *FoodCache) GetFood(ctx context.Context, id string) (*model.Food, error) {
	fill := true
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	switch {
	case err == nil:
		var f model.Food
		if err := json.Unmarshal(raw, &f); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &f, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.log.WithField("food_id", id).Warn("Dropping unreadable cache entry")
	case errors.Is(err, redis.Nil):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		c.log.WithError(err).Warn("Food cache read failed")
		fill = false
	}

	var gen int64
	if fill {
		if gen, err = generation(c.client.Get(ctx, generationKey(id))); err != nil {
			c.log.WithError(err).Warn("Food cache generation read failed")
			fill = false
		}
	}

	f, err := c.next.GetFood(ctx, id)
	if err != nil {
		return nil, err
	}

	if fill {
		c.fill(ctx, id, gen, f)
	}
	return f, nil
}

// fill caches f unless id was invalidated after gen was read.
func (c *FoodCache) fill(ctx context.Context, id string, gen int64, f *model.Food) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(tx.Get(ctx, generationKey(id)))
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), raw, c.ttl)
			return nil
		})
		return err
	}, generationKey(id))

	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.log.WithField("food_id", id).Debug("Skipping fill for a food changed during the read")
	default:
		c.log.WithError(err).Warn("Food cache write failed")
	}
}

func (c *FoodCache) InsertFood(ctx context.Context, f *model.Food) error {
	return c.next.InsertFood(ctx, f)
}

func (c *FoodCache) GetFoodImage(ctx context.Context, id string) ([]byte, string, error) {
	return c.next.GetFoodImage(ctx, id)
}

func (c *FoodCache) ListFoods(ctx context.Context, filter store.FoodFilter) iter.Seq2[model.Food, error] {
	return c.next.ListFoods(ctx, filter)
}

func (c *FoodCache) UpdateFood(ctx context.Context, f *model.Food) error {
	defer c.invalidate(ctx, f.ID)
	return c.next.UpdateFood(ctx, f)
}

func (c *FoodCache) SetFoodStatus(ctx context.Context, id string, status model.FoodStatus) error {
	defer c.invalidate(ctx, id)
	return c.next.SetFoodStatus(ctx, id, status)
}

func (c *FoodCache) DeleteFood(ctx context.Context, id string) error {
	defer c.invalidate(ctx, id)
	return c.next.DeleteFood(ctx, id)
}

// invalidate drops the entry for id and bumps its generation, even if ctx
// has been cancelled.
func (c *FoodCache) invalidate(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(id))
		pipe.Expire(ctx, generationKey(id), generationTTL)
		pipe.Del(ctx, key(id))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.WithError(err).WithField("food_id", id).Error("Food cache invalidation failed")
	}
}
