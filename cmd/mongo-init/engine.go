package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dockerdb/mongo-init/internal/cache"
	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/mongodb"
	"github.com/dockerdb/mongo-init/internal/repository"
	"github.com/dockerdb/mongo-init/internal/retry"
	"github.com/dockerdb/mongo-init/internal/service"
)

// connectEngine waits for MongoDB to accept connections. Only connecting is
// retried; user commands are issued once.
func (a *app) connectEngine(ctx context.Context) (*mongodb.Client, error) {
	creds := mongodb.Credentials{
		Username:   a.cfg.MongoRootUsername,
		Password:   a.cfg.MongoRootPassword,
		AuthSource: a.cfg.MongoAuthSource,
	}

	if budget := a.cfg.ReadyBudget(); budget >= a.cfg.CommandTimeout {
		a.logger.Warn("readiness wait can outlast the command timeout",
			slog.Duration("ready_budget", budget),
			slog.Duration("command_timeout", a.cfg.CommandTimeout),
		)
	}

	policy := retry.DefaultPolicy(a.cfg.ReadyAttempts)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		a.metrics.IncConnectRetry()
		a.logger.Warn("mongodb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", sanitizeError(err, a.secrets()...)),
		)
	}

	start := time.Now()
	var client *mongodb.Client
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		c, err := mongodb.New(ctx, a.cfg.MongoURI, creds, a.cfg.ConnectTimeout)
		if err != nil {
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	a.metrics.ObserveConnectDuration(time.Since(start))
	a.logger.Info("connected to mongodb",
		slog.String("mongo_uri", redactURL(a.cfg.MongoURI)),
		slog.Bool("authenticated", !creds.IsZero()),
	)
	return client, nil
}

// loginAs authenticates as the bootstrap user the way the application does.
func (a *app) loginAs(ctx context.Context, database string, spec model.UserSpec) error {
	c, err := mongodb.New(ctx, a.cfg.MongoURI, mongodb.Credentials{
		Username:   spec.Username,
		Password:   spec.Password,
		AuthSource: database,
	}, a.cfg.ConnectTimeout)
	if err != nil {
		return err
	}
	return c.Close(context.WithoutCancel(ctx))
}

// openLocker returns the Redis run lock, or nil when REDIS_URL is unset.
// An unreachable Redis is an error: the lock is the only guard against two
// containers bootstrapping the same user.
func (a *app) openLocker(ctx context.Context) (service.Locker, func(), error) {
	if !a.cfg.LockEnabled() {
		return nil, func() {}, nil
	}

	c, err := cache.New(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.logger.Info("run lock enabled",
		slog.String("redis_url", redactURL(a.cfg.RedisURL)),
		slog.Duration("ttl", a.cfg.LockTTL),
	)

	return c, func() { _ = c.Close() }, nil
}

// openLedger returns the run ledger, or nil when DATABASE_URL is unset or
// unreachable. The ledger never blocks a bootstrap.
func (a *app) openLedger(ctx context.Context) (service.RunLedger, func()) {
	if !a.cfg.LedgerEnabled() {
		return nil, func() {}
	}

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.logger.Warn("run ledger disabled",
			slog.String("error", sanitizeError(err, a.secrets()...)),
		)
		return nil, func() {}
	}

	return repo, repo.Close
}

// openRepository connects to the meta database and applies the schema.
func (a *app) openRepository(ctx context.Context) (*repository.Repository, error) {
	repo, err := repository.New(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, err
	}

	a.logger.Debug("connected to meta database",
		slog.String("database_url", redactURL(a.cfg.DatabaseURL)),
	)
	return repo, nil
}
