package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/service"
)

func newVerifyCmd(a *app) *cobra.Command {
	var (
		format  string
		noLogin bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the bootstrap user exists with exactly the configured roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return a.runVerify(cmd.Context(), cmd.OutOrStdout(), format, !noLogin)
		},
	}

	cmd.Flags().StringVar(&format, "format", "plain", "Output format: plain or json")
	cmd.Flags().BoolVar(&noLogin, "no-login", false, "Skip authenticating as the bootstrap user")

	return cmd
}

func (a *app) runVerify(ctx context.Context, out io.Writer, format string, login bool) error {
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

	cfg := service.BootstrapConfig{
		Users:    engine,
		Metrics:  a.metrics,
		Logger:   a.logger,
		Database: a.cfg.InitDatabase,
	}
	if login {
		cfg.Login = a.loginAs
	}
	svc := service.NewBootstrapService(cfg)

	info, err := svc.Verify(ctx, spec)
	if err != nil {
		return err
	}

	a.logger.Info("user verified",
		slog.String("user", info.Username),
		slog.String("db", info.Database),
		slog.Any("roles", model.UserSpec{Roles: info.Roles}.RoleStrings()),
	)
	return writeUserInfo(out, format, info)
}

func writeUserInfo(out io.Writer, format string, info *model.UserInfo) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	default:
		_, err := fmt.Fprintf(out, "%s@%s %s\n",
			info.Username, info.Database,
			strings.Join(model.UserSpec{Roles: info.Roles}.RoleStrings(), ","))
		return err
	}
}

func validateFormat(format string) error {
	switch strings.ToLower(format) {
	case "plain", "json":
		return nil
	default:
		return fmt.Errorf("invalid format %q; use plain or json", format)
	}
}
