package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/cache"
	"github.com/plateshare/plateshare/internal/catalog"
	"github.com/plateshare/plateshare/internal/config"
	"github.com/plateshare/plateshare/internal/db"
	"github.com/plateshare/plateshare/internal/ledger"
	"github.com/plateshare/plateshare/internal/lifecycle"
	"github.com/plateshare/plateshare/internal/store"
)

// services is the wired object graph shared by serve, seed and audit.
type services struct {
	db        *sql.DB
	redis     *redis.Client
	store     *store.SQLStore
	catalog   *catalog.Catalog
	ledger    *ledger.Ledger
	lifecycle *lifecycle.Coordinator
}

func openServices(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*services, error) {
	database, dialect, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, dialect); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	logger.WithFields(logrus.Fields{"dialect": dialect}).Info("database ready")

	s := &services{db: database, store: store.New(database, dialect)}

	var foods store.FoodBackend = s.store
	if cfg.RedisAddr != "" {
		s.redis = cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		if err := s.redis.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, food reads fall back to the database")
		}
		foods = cache.NewFoodCache(s.store, s.redis, cfg.CacheTTL(), logger)
		logger.WithField("addr", cfg.RedisAddr).Info("food cache enabled")
	}

	s.catalog = catalog.New(foods)
	s.ledger = ledger.New(s.store, s.catalog)
	s.lifecycle = lifecycle.New(s.ledger, s.catalog,
		lifecycle.WithLogger(logger),
		lifecycle.WithSingleWinner(cfg.LifecycleSingleWinner),
		lifecycle.WithStepTimeout(cfg.LifecycleStepTimeout()),
	)
	return s, nil
}

// tokenSecret prefers the configured secret over the one kept in the
// database.
func (s *services) tokenSecret(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.TokenSecret != "" {
		return cfg.TokenSecret, nil
	}
	return s.store.TokenSecret(ctx)
}

func (s *services) Close() {
	if s.redis != nil {
		s.redis.Close()
	}
	s.db.Close()
}
