package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dockerdb/mongo-init/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// RootCredentials returns the engine admin credentials used by integration
// tests. Both are empty when the engine runs without auth.
func RootCredentials() (username, password string) {
	return os.Getenv("MONGO_INITDB_ROOT_USERNAME"), os.Getenv("MONGO_INITDB_ROOT_PASSWORD")
}

// ResetBootstrapSchema drops the bootstrap tables so the next EnsureSchema
// starts from scratch.
func ResetBootstrapSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS bootstrap_runs, users`); err != nil {
		return fmt.Errorf("drop bootstrap tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Uint64

// UniqueName generates a unique identifier for tests. Mongo database names
// cannot contain '.', so only '-' and digits are appended.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUserSpec creates a user spec with readWrite on database.
func NewTestUserSpec(t testing.TB, database string) model.UserSpec {
	t.Helper()
	return model.UserSpec{
		Username: UniqueName("user"),
		Password: "test-password",
		Roles: []model.RoleGrant{
			{Role: model.RoleReadWrite, Database: database},
		},
	}
}

// NewTestAdmin creates an admin record with sensible defaults.
func NewTestAdmin(t testing.TB) *model.Admin {
	t.Helper()
	now := time.Now().UTC()
	return &model.Admin{
		ID:           UniqueName("admin"),
		Email:        UniqueName("admin") + "@example.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Token:        "0123456789abcdef",
		Active:       true,
		Admin:        true,
		CreatedAt:    now,
	}
}
