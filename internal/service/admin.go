package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dockerdb/mongo-init/internal/auth"
	"github.com/dockerdb/mongo-init/internal/model"
)

// Admin errors.
var (
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrEmptyPassword = errors.New("password is required")
)

// AdminStore persists administrators.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
}

// AdminService creates application administrators in the meta database.
type AdminService struct {
	store  AdminStore
	logger *slog.Logger
	hash   func(string) (string, error)
}

// NewAdminService creates a new AdminService.
func NewAdminService(store AdminStore, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		store:  store,
		logger: logger,
		hash:   auth.HashPassword,
	}
}

// CreateAdmin creates an active administrator with a fresh token.
func (s *AdminService) CreateAdmin(ctx context.Context, email, password string) (*model.Admin, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		Token:        token,
		Active:       true,
		Admin:        true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("admin created",
		slog.String("admin_id", admin.ID),
		slog.String("email", admin.Email),
	)
	return admin, nil
}
