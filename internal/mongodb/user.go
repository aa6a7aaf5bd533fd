package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dockerdb/mongo-init/internal/model"
)

// Server error codes returned by user management commands.
const (
	codeUnauthorized = 13
	codeDuplicateKey = 11000
	codeUserExists   = 51003
	codeUserNotFound = 11
	codeRoleNotFound = 31
)

// Common errors for user management operations.
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrUnauthorized = errors.New("not authorized to manage users")
	ErrRoleNotFound = errors.New("role not found")
)

// CreateUser runs createUser against the given database.
// It is not idempotent: an existing user yields ErrUserExists.
func (c *Client) CreateUser(ctx context.Context, database string, spec model.UserSpec) error {
	err := c.client.Database(database).RunCommand(ctx, createUserCommand(spec)).Err()
	if err != nil {
		return fmt.Errorf("failed to create user %q on %s: %w", spec.Username, database, classify(err))
	}
	return nil
}

// GetUser reads a user back with usersInfo.
func (c *Client) GetUser(ctx context.Context, database, username string) (*model.UserInfo, error) {
	var result usersInfoResult
	err := c.client.Database(database).RunCommand(ctx, usersInfoCommand(database, username)).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q on %s: %w", username, database, classify(err))
	}

	if len(result.Users) == 0 {
		return nil, ErrUserNotFound
	}

	return result.Users[0].toModel(), nil
}

// DropUser removes a user. Used to reset state in tests and tooling.
func (c *Client) DropUser(ctx context.Context, database, username string) error {
	err := c.client.Database(database).RunCommand(ctx, bson.D{{Key: "dropUser", Value: username}}).Err()
	if err != nil {
		return fmt.Errorf("failed to drop user %q on %s: %w", username, database, classify(err))
	}
	return nil
}

// createUserCommand builds {createUser, pwd, roles} with nothing else.
func createUserCommand(spec model.UserSpec) bson.D {
	roles := bson.A{}
	for _, g := range spec.Roles {
		roles = append(roles, bson.D{
			{Key: "role", Value: g.Role},
			{Key: "db", Value: g.Database},
		})
	}

	return bson.D{
		{Key: "createUser", Value: spec.Username},
		{Key: "pwd", Value: spec.Password},
		{Key: "roles", Value: roles},
	}
}

func usersInfoCommand(database, username string) bson.D {
	return bson.D{
		{Key: "usersInfo", Value: bson.D{
			{Key: "user", Value: username},
			{Key: "db", Value: database},
		}},
	}
}

type usersInfoResult struct {
	Users []userDocument `bson:"users"`
}

type userDocument struct {
	User  string `bson:"user"`
	DB    string `bson:"db"`
	Roles []struct {
		Role string `bson:"role"`
		DB   string `bson:"db"`
	} `bson:"roles"`
}

func (d userDocument) toModel() *model.UserInfo {
	info := &model.UserInfo{
		Username: d.User,
		Database: d.DB,
		Roles:    make([]model.RoleGrant, 0, len(d.Roles)),
	}
	for _, r := range d.Roles {
		info.Roles = append(info.Roles, model.RoleGrant{Role: r.Role, Database: r.DB})
	}
	return info
}

// classify maps server command errors onto package errors, keeping the
// original error in the chain.
func classify(err error) error {
	var cmdErr mongo.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}

	switch cmdErr.Code {
	case codeUserExists, codeDuplicateKey:
		return fmt.Errorf("%w: %w", ErrUserExists, err)
	case codeUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case codeUserNotFound:
		return fmt.Errorf("%w: %w", ErrUserNotFound, err)
	case codeRoleNotFound:
		return fmt.Errorf("%w: %w", ErrRoleNotFound, err)
	default:
		return err
	}
}
