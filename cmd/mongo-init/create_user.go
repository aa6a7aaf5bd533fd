package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dockerdb/mongo-init/internal/service"
)

func newCreateUserCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create-user",
		Short: "Create the bootstrap user (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCreateUser(cmd.Context())
		},
	}
}

func (a *app) runCreateUser(ctx context.Context) error {
	defer a.logMetrics()

	spec, err := a.userSpec()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.CommandTimeout)
	defer cancel()

	engine, err := a.connectEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close(context.Background()) }()

	locker, closeLocker, err := a.openLocker(ctx)
	if err != nil {
		return err
	}
	defer closeLocker()

	ledger, closeLedger := a.openLedger(ctx)
	defer closeLedger()

	svc := service.NewBootstrapService(service.BootstrapConfig{
		Users:    engine,
		Locker:   locker,
		Ledger:   ledger,
		Metrics:  a.metrics,
		Logger:   a.logger,
		Database: a.cfg.InitDatabase,
		LockTTL:  a.cfg.LockTTL,
	})

	a.logger.Info("creating user",
		slog.String("user", spec.Username),
		slog.String("db", a.cfg.InitDatabase),
		slog.Any("roles", spec.RoleStrings()),
	)

	_, err = svc.CreateUser(ctx, spec)
	return err
}
