// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// RoleReadWrite is the built-in role granted to the bootstrap user.
const RoleReadWrite = "readWrite"

// Default bootstrap account. The application connects with these credentials
// (DB_USER / DB_PASSWORD) unless the deployment overrides them.
const (
	DefaultUsername = "dockerMongoUser"
	DefaultPassword = "dockerMongoPassword"
	DefaultDatabase = "dockerdb"
)

var (
	// ErrEmptyUsername indicates the user spec has no username.
	ErrEmptyUsername = errors.New("username is required")
	// ErrEmptyPassword indicates the user spec has no password.
	ErrEmptyPassword = errors.New("password is required")
	// ErrNoRoles indicates the user spec grants nothing.
	ErrNoRoles = errors.New("at least one role is required")
)

// RoleGrant authorizes a role within one database.
type RoleGrant struct {
	Role     string `json:"role" yaml:"role"`
	Database string `json:"db" yaml:"db"`
}

// String renders the grant as role@db.
func (g RoleGrant) String() string {
	return g.Role + "@" + g.Database
}

// UserSpec describes the account the bootstrap creates.
type UserSpec struct {
	Username string      `json:"user" yaml:"user"`
	Password string      `json:"-" yaml:"pwd"`
	Roles    []RoleGrant `json:"roles" yaml:"roles"`
}

// DefaultUserSpec returns the stock bootstrap account: dockerMongoUser with
// readWrite on dockerdb.
func DefaultUserSpec() UserSpec {
	return UserSpec{
		Username: DefaultUsername,
		Password: DefaultPassword,
		Roles: []RoleGrant{
			{Role: RoleReadWrite, Database: DefaultDatabase},
		},
	}
}

// Validate reports the first missing field.
func (s UserSpec) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return ErrEmptyUsername
	}
	if s.Password == "" {
		return ErrEmptyPassword
	}
	if len(s.Roles) == 0 {
		return ErrNoRoles
	}
	for i, g := range s.Roles {
		if strings.TrimSpace(g.Role) == "" || strings.TrimSpace(g.Database) == "" {
			return fmt.Errorf("role %d: role and db are required", i)
		}
	}
	return nil
}

// RoleStrings returns the grants rendered as role@db, in order.
func (s UserSpec) RoleStrings() []string {
	out := make([]string, 0, len(s.Roles))
	for _, g := range s.Roles {
		out = append(out, g.String())
	}
	return out
}

// UserInfo is an account as reported back by the database engine.
type UserInfo struct {
	Username string      `json:"user"`
	Database string      `json:"db"`
	Roles    []RoleGrant `json:"roles"`
}

// HasExactRoles reports whether the account holds exactly the given grants.
// The engine does not preserve grant order, so the comparison ignores it.
func (u *UserInfo) HasExactRoles(want []RoleGrant) bool {
	if len(u.Roles) != len(want) {
		return false
	}
	counts := make(map[RoleGrant]int, len(want))
	for _, g := range want {
		counts[g]++
	}
	for _, g := range u.Roles {
		if counts[g] == 0 {
			return false
		}
		counts[g]--
	}
	return true
}
