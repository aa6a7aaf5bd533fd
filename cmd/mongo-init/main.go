// Package main is the entrypoint for mongo-init, the tool the MongoDB init hook
// runs to create the application's database user.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dockerdb/mongo-init/internal/config"
	"github.com/dockerdb/mongo-init/internal/metrics"
	"github.com/dockerdb/mongo-init/internal/model"
)

// app carries what every subcommand needs once the root pre-run has loaded it.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.InMemoryRecorder

	// spec is the resolved bootstrap user, set by userSpec.
	spec *model.UserSpec
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	root, a := newRootCmd()
	err := root.ExecuteContext(ctx)
	stop()

	if err != nil {
		a.logFailure(err)
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{metrics: metrics.NewInMemory()}

	root := &cobra.Command{
		Use:   "mongo-init",
		Short: "Create the application user in a fresh MongoDB instance",
		Long: "mongo-init creates one MongoDB user with a single role grant. " +
			"It is meant to run once from /docker-entrypoint-initdb.d; " +
			"running it again against the same instance fails with a duplicate-user error.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCreateUser(cmd.Context())
		},
	}

	root.AddCommand(
		newCreateUserCmd(a),
		newVerifyCmd(a),
		newCreateAdminCmd(a),
	)

	return root, a
}

// init loads configuration and installs the logger.
func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = initLogger(cfg)
	return nil
}

// logFailure logs err once with every configured secret redacted.
func (a *app) logFailure(err error) {
	logger := a.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("mongo-init failed", slog.String("error", sanitizeError(err, a.secrets()...)))
}

// userSpec resolves the bootstrap user once and keeps it so its password is
// redacted from later log output.
func (a *app) userSpec() (model.UserSpec, error) {
	if a.spec != nil {
		return *a.spec, nil
	}
	spec, err := a.cfg.UserSpec()
	if err != nil {
		return model.UserSpec{}, err
	}
	a.spec = &spec
	return spec, nil
}

func (a *app) secrets() []string {
	if a.cfg == nil {
		return nil
	}
	secrets := []string{
		a.cfg.MongoURI,
		a.cfg.DatabaseURL,
		a.cfg.RedisURL,
		a.cfg.MongoRootPassword,
		a.cfg.UserPassword,
	}
	if a.spec != nil {
		secrets = append(secrets, a.spec.Password)
	}
	return secrets
}

// logMetrics logs the counters gathered during the run.
func (a *app) logMetrics() {
	s := a.metrics.Snapshot()
	a.logger.Info("run metrics",
		slog.Uint64("users_created", s.UsersCreated),
		slog.Any("create_failures", s.UserCreateFailures),
		slog.Uint64("users_verified", s.UsersVerified),
		slog.Uint64("verify_failures", s.UserVerifyFailures),
		slog.Uint64("connect_retries", s.ConnectRetries),
		slog.Int64("connect_ns", s.ConnectDurationTotalNs),
		slog.Uint64("lock_contentions", s.LockContentions),
		slog.Uint64("ledger_write_failures", s.LedgerWriteFailures),
	)
}

// initLogger initializes the slog logger based on configuration. Logs go to
// stderr so stdout stays free for command output.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogHandler() == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(h).With(slog.String("env", cfg.AppEnv))
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
