// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/dockerdb/mongo-init/internal/model"
	"github.com/dockerdb/mongo-init/internal/retry"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv string `env:"APP_ENV" envDefault:"development"`

	// MongoDB engine being bootstrapped. The root credentials are the ones the
	// official image reads; during the init phase they may be left empty.
	MongoURI          string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoRootUsername string `env:"MONGO_INITDB_ROOT_USERNAME"`
	MongoRootPassword string `env:"MONGO_INITDB_ROOT_PASSWORD"`
	MongoAuthSource   string `env:"MONGO_AUTH_SOURCE" envDefault:"admin"`

	// Database the user is created in (its authentication database).
	InitDatabase string `env:"MONGO_INITDB_DATABASE" envDefault:"dockerdb"`

	// Bootstrap user
	UserName         string `env:"INIT_USER" envDefault:"dockerMongoUser"`
	UserPassword     string `env:"INIT_PASSWORD" envDefault:"dockerMongoPassword"`
	UserRole         string `env:"INIT_ROLE" envDefault:"readWrite"`
	UserRoleDatabase string `env:"INIT_ROLE_DB" envDefault:"dockerdb"`

	// Optional YAML file replacing the INIT_* user settings.
	UserSpecFile string `env:"INIT_USER_SPEC_FILE"`

	// Timeouts. CommandTimeout bounds the whole run, readiness wait included.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"5s"`
	ReadyAttempts  int           `env:"READY_ATTEMPTS" envDefault:"5"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT" envDefault:"60s"`

	// Run lock (Redis). Disabled when empty.
	RedisURL string        `env:"REDIS_URL"`
	LockTTL  time.Duration `env:"BOOTSTRAP_LOCK_TTL" envDefault:"60s"`

	// Meta database (PostgreSQL). Enables the run ledger; required by create-admin.
	DatabaseURL string `env:"DATABASE_URL"`

	// Logging. An empty LogFormat means text in development, json otherwise.
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// LogHandler returns the log format to use: LOG_FORMAT when set, otherwise
// text in development and json everywhere else.
func (c *Config) LogHandler() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	if c.IsDevelopment() {
		return "text"
	}
	return "json"
}

// ReadyBudget is the longest the readiness wait can take: every attempt
// hitting CONNECT_TIMEOUT plus the backoff between them.
func (c *Config) ReadyBudget() time.Duration {
	policy := retry.DefaultPolicy(c.ReadyAttempts)
	return time.Duration(c.ReadyAttempts)*c.ConnectTimeout + policy.MaxWait()
}

// LockEnabled returns true if a Redis run lock is configured.
func (c *Config) LockEnabled() bool {
	return c.RedisURL != ""
}

// LedgerEnabled returns true if runs are recorded in the meta database.
func (c *Config) LedgerEnabled() bool {
	return c.DatabaseURL != ""
}

// UserSpec builds the bootstrap user from the spec file when one is set,
// otherwise from the INIT_* variables. The result is validated.
func (c *Config) UserSpec() (model.UserSpec, error) {
	var spec model.UserSpec

	if c.UserSpecFile != "" {
		loaded, err := LoadUserSpec(c.UserSpecFile)
		if err != nil {
			return model.UserSpec{}, err
		}
		spec = loaded
	} else {
		spec = model.UserSpec{
			Username: c.UserName,
			Password: c.UserPassword,
			Roles: []model.RoleGrant{
				{Role: c.UserRole, Database: c.UserRoleDatabase},
			},
		}
	}

	if err := spec.Validate(); err != nil {
		return model.UserSpec{}, fmt.Errorf("invalid user spec: %w", err)
	}
	return spec, nil
}

// Load parses environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.ReadyAttempts < 1 {
		return nil, fmt.Errorf("READY_ATTEMPTS must be at least 1, got %d", cfg.ReadyAttempts)
	}
	return cfg, nil
}
