// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dockerdb/mongo-init/internal/cache"
	"github.com/dockerdb/mongo-init/internal/metrics"
	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/mongodb"
)

// Service errors.
var (
	ErrRoleMismatch = errors.New("user roles do not match the configured grants")
	ErrLoginFailed  = errors.New("login as bootstrap user failed")
)

const (
	defaultLockTTL     = time.Minute
	ledgerWriteTimeout = 5 * time.Second
)

// UserStore is the engine's user management surface.
type UserStore interface {
	CreateUser(ctx context.Context, database string, spec model.UserSpec) error
	GetUser(ctx context.Context, database, username string) (*model.UserInfo, error)
}

// Locker serializes runs for the same user across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// RunLedger records finished runs.
type RunLedger interface {
	RecordRun(ctx context.Context, run *model.BootstrapRun) error
}

// LoginFunc authenticates as the bootstrap user against database.
type LoginFunc func(ctx context.Context, database string, spec model.UserSpec) error

// BootstrapConfig wires a BootstrapService. Locker, Ledger and Login are
// optional.
type BootstrapConfig struct {
	Users    UserStore
	Locker   Locker
	Ledger   RunLedger
	Login    LoginFunc
	Metrics  metrics.Recorder
	Logger   *slog.Logger
	Database string
	LockTTL  time.Duration
}

// BootstrapService creates the bootstrap user and checks the result.
type BootstrapService struct {
	users    UserStore
	locker   Locker
	ledger   RunLedger
	login    LoginFunc
	metrics  metrics.Recorder
	logger   *slog.Logger
	database string
	lockTTL  time.Duration
}

// NewBootstrapService creates a new BootstrapService.
func NewBootstrapService(cfg BootstrapConfig) *BootstrapService {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	return &BootstrapService{
		users:    cfg.Users,
		locker:   cfg.Locker,
		ledger:   cfg.Ledger,
		login:    cfg.Login,
		metrics:  recorder,
		logger:   logger,
		database: cfg.Database,
		lockTTL:  ttl,
	}
}

// CreateUser issues exactly one createUser for spec. Engine errors are
// returned as-is (wrapped); an existing user is reported as
// mongodb.ErrUserExists and is not treated as success.
func (s *BootstrapService) CreateUser(ctx context.Context, spec model.UserSpec) (*model.BootstrapRun, error) {
	run := model.NewBootstrapRun(s.database, spec)
	logger := s.logger.With(
		slog.String("run_id", run.ID),
		slog.String("user", spec.Username),
		slog.String("db", s.database),
	)

	err := s.createUser(ctx, spec, logger)
	run.Finish(err)
	s.record(ctx, run, logger)

	if err != nil {
		s.metrics.IncUserCreateFailed(failureReason(err))
		return run, err
	}

	s.metrics.IncUserCreated()
	logger.Info("user created",
		slog.Any("roles", run.Roles),
		slog.Duration("duration", run.Duration()),
	)
	return run, nil
}

func (s *BootstrapService) createUser(ctx context.Context, spec model.UserSpec, logger *slog.Logger) error {
	if s.locker != nil {
		release, err := s.locker.AcquireLock(ctx, cache.LockKey(s.database, spec.Username), s.lockTTL)
		if err != nil {
			if errors.Is(err, cache.ErrLockHeld) {
				s.metrics.IncLockContended()
			}
			return fmt.Errorf("acquire run lock: %w", err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("failed to release run lock", slog.String("error", err.Error()))
			}
		}()
	}

	return s.users.CreateUser(ctx, s.database, spec)
}

// record writes the run to the ledger. Ledger failures never change the
// outcome of the run.
func (s *BootstrapService) record(ctx context.Context, run *model.BootstrapRun, logger *slog.Logger) {
	if s.ledger == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	if err := s.ledger.RecordRun(ctx, run); err != nil {
		s.metrics.IncLedgerWriteFailed()
		logger.Warn("failed to record bootstrap run", slog.String("error", err.Error()))
	}
}

// Verify reads the user back and requires its grants to equal spec.Roles.
// When a LoginFunc is configured it also authenticates as the user.
func (s *BootstrapService) Verify(ctx context.Context, spec model.UserSpec) (*model.UserInfo, error) {
	info, err := s.verify(ctx, spec)
	s.metrics.IncUserVerified(err == nil)
	return info, err
}

func (s *BootstrapService) verify(ctx context.Context, spec model.UserSpec) (*model.UserInfo, error) {
	info, err := s.users.GetUser(ctx, s.database, spec.Username)
	if err != nil {
		return nil, err
	}

	if !info.HasExactRoles(spec.Roles) {
		return info, fmt.Errorf("%w: have %v, want %v",
			ErrRoleMismatch, model.UserSpec{Roles: info.Roles}.RoleStrings(), spec.RoleStrings())
	}

	if s.login != nil {
		if err := s.login(ctx, s.database, spec); err != nil {
			return info, fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}
	}

	return info, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, mongodb.ErrUserExists):
		return metrics.ReasonUserExists
	case errors.Is(err, mongodb.ErrUnauthorized):
		return metrics.ReasonUnauthorized
	case errors.Is(err, cache.ErrLockHeld):
		return metrics.ReasonLockHeld
	default:
		return metrics.ReasonOther
	}
}
