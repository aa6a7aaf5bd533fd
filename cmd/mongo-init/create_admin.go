package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/service"
)

// adminOutput is what create-admin prints in json format. The password hash
// is never printed.
type adminOutput struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
	Admin bool   `json:"admin"`
}

func newCreateAdminCmd(a *app) *cobra.Command {
	var (
		email    string
		password string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an application administrator in the meta database",
		Example: `  mongo-init create-admin -e admin@example.com -p passwd
  mongo-init create-admin -e admin@example.com -p passwd --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			return a.runCreateAdmin(cmd.Context(), cmd.OutOrStdout(), email, password, format)
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Administrator email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Administrator password")
	cmd.Flags().StringVar(&format, "format", "plain", "Output format: plain or json")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func (a *app) runCreateAdmin(ctx context.Context, out io.Writer, email, password, format string) error {
	if !a.cfg.LedgerEnabled() {
		return errors.New("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.CommandTimeout)
	defer cancel()

	repo, err := a.openRepository(ctx)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer repo.Close()

	admin, err := service.NewAdminService(repo, a.logger).CreateAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	return writeAdmin(out, format, admin)
}

func writeAdmin(out io.Writer, format string, admin *model.Admin) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(adminOutput{
			ID:    admin.ID,
			Email: admin.Email,
			Token: admin.Token,
			Admin: admin.Admin,
		})
	default:
		_, err := fmt.Fprintln(out, admin.Token)
		return err
	}
}
