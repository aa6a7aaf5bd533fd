//go:build integration

package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dockerdb/mongo-init/internal/testutil"
)

func newTestClient(t *testing.T) (context.Context, *Client) {
	t.Helper()

	uri := testutil.RequireEnv(t, "MONGO_URI")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	rootUser, rootPassword := testutil.RootCredentials()
	client, err := New(ctx, uri, Credentials{Username: rootUser, Password: rootPassword}, 5*time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	return ctx, client
}

func TestIntegrationCreateUser_FreshEngine(t *testing.T) {
	ctx, client := newTestClient(t)

	database := testutil.UniqueName("db")
	spec := testutil.NewTestUserSpec(t, database)
	t.Cleanup(func() { _ = client.DropUser(context.Background(), database, spec.Username) })

	if err := client.CreateUser(ctx, database, spec); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	info, err := client.GetUser(ctx, database, spec.Username)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if info.Username != spec.Username {
		t.Errorf("Username = %s, want %s", info.Username, spec.Username)
	}
	if !info.HasExactRoles(spec.Roles) {
		t.Errorf("Roles = %+v, want %+v", info.Roles, spec.Roles)
	}
}

func TestIntegrationCreateUser_DuplicateFails(t *testing.T) {
	ctx, client := newTestClient(t)

	database := testutil.UniqueName("db")
	spec := testutil.NewTestUserSpec(t, database)
	t.Cleanup(func() { _ = client.DropUser(context.Background(), database, spec.Username) })

	if err := client.CreateUser(ctx, database, spec); err != nil {
		t.Fatalf("first CreateUser failed: %v", err)
	}

	err := client.CreateUser(ctx, database, spec)
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("second CreateUser = %v, want ErrUserExists", err)
	}
}

func TestIntegrationGetUser_NotFound(t *testing.T) {
	ctx, client := newTestClient(t)

	_, err := client.GetUser(ctx, testutil.UniqueName("db"), "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser = %v, want ErrUserNotFound", err)
	}
}

func TestIntegrationLogin_AsCreatedUser(t *testing.T) {
	ctx, client := newTestClient(t)

	database := testutil.UniqueName("db")
	spec := testutil.NewTestUserSpec(t, database)
	t.Cleanup(func() { _ = client.DropUser(context.Background(), database, spec.Username) })

	if err := client.CreateUser(ctx, database, spec); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	userClient, err := New(ctx, testutil.RequireEnv(t, "MONGO_URI"), Credentials{
		Username:   spec.Username,
		Password:   spec.Password,
		AuthSource: database,
	}, 5*time.Second)
	if err != nil {
		t.Fatalf("login as created user failed: %v", err)
	}
	_ = userClient.Close(ctx)

	_, err = New(ctx, testutil.RequireEnv(t, "MONGO_URI"), Credentials{
		Username:   spec.Username,
		Password:   "wrong-password",
		AuthSource: database,
	}, 5*time.Second)
	if err == nil {
		t.Error("expected login with wrong password to fail")
	}
}
