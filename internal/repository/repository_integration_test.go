//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/testutil"
)

func newTestRepository(t *testing.T) (context.Context, *Repository) {
	t.Helper()

	databaseURL := testutil.RequireEnv(t, "DATABASE_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	repo, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(repo.Close)

	if err := testutil.ResetBootstrapSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("ResetBootstrapSchema failed: %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}

	return ctx, repo
}

func TestIntegrationEnsureSchema_Idempotent(t *testing.T) {
	ctx, repo := newTestRepository(t)

	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
}

func TestIntegrationAdmin_CreateAndGet(t *testing.T) {
	ctx, repo := newTestRepository(t)

	admin := testutil.NewTestAdmin(t)
	if err := repo.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}

	got, err := repo.GetAdminByEmail(ctx, admin.Email)
	if err != nil {
		t.Fatalf("GetAdminByEmail failed: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("ID = %s, want %s", got.ID, admin.ID)
	}
	if got.PasswordHash != admin.PasswordHash {
		t.Error("PasswordHash was not stored verbatim")
	}
	if !got.Active || !got.Admin {
		t.Errorf("flags = active:%v admin:%v, want both true", got.Active, got.Admin)
	}
}

func TestIntegrationAdmin_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestRepository(t)

	admin := testutil.NewTestAdmin(t)
	if err := repo.CreateAdmin(ctx, admin); err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}

	dup := testutil.NewTestAdmin(t)
	dup.Email = admin.Email
	if err := repo.CreateAdmin(ctx, dup); !errors.Is(err, ErrEmailExists) {
		t.Errorf("CreateAdmin duplicate = %v, want ErrEmailExists", err)
	}
}

func TestIntegrationAdmin_NotFound(t *testing.T) {
	ctx, repo := newTestRepository(t)

	if _, err := repo.GetAdminByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("GetAdminByEmail = %v, want ErrAdminNotFound", err)
	}
}

func TestIntegrationRuns_RecordAndList(t *testing.T) {
	ctx, repo := newTestRepository(t)

	spec := model.DefaultUserSpec()

	first := model.NewBootstrapRun("dockerdb", spec)
	first.Finish(nil)
	if err := repo.RecordRun(ctx, first); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	second := model.NewBootstrapRun("dockerdb", spec)
	second.Finish(errors.New("user already exists"))
	if err := repo.RecordRun(ctx, second); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := repo.ListRuns(ctx, "dockerdb", spec.Username, 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != second.ID {
		t.Errorf("newest run = %s, want %s", runs[0].ID, second.ID)
	}
	if runs[0].Status != model.RunStatusFailed || runs[0].Error != "user already exists" {
		t.Errorf("newest run = %+v", runs[0])
	}
	if len(runs[1].Roles) != 1 || runs[1].Roles[0] != "readWrite@dockerdb" {
		t.Errorf("roles = %v, want [readWrite@dockerdb]", runs[1].Roles)
	}
}
