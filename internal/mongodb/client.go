// Package mongodb provides access to the MongoDB engine being bootstrapped.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Credentials authenticate the connection. The zero value connects without
// authentication, which is what the engine allows during its init phase.
type Credentials struct {
	Username   string
	Password   string
	AuthSource string
}

// IsZero returns true if no username is set.
func (c Credentials) IsZero() bool {
	return c.Username == ""
}

// Client wraps a MongoDB client.
type Client struct {
	client *mongo.Client
}

// New connects to MongoDB and pings the primary.
func New(ctx context.Context, uri string, creds Credentials, timeout time.Duration) (*Client, error) {
	opts := clientOptions(uri, creds, timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Client{client: client}, nil
}

func clientOptions(uri string, creds Credentials, timeout time.Duration) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("mongo-init").
		SetMaxPoolSize(2)

	if timeout > 0 {
		opts.SetServerSelectionTimeout(timeout).SetConnectTimeout(timeout)
	}

	if !creds.IsZero() {
		authSource := creds.AuthSource
		if authSource == "" {
			authSource = "admin"
		}
		opts.SetAuth(options.Credential{
			Username:   creds.Username,
			Password:   creds.Password,
			AuthSource: authSource,
		})
	}

	return opts
}

// Close disconnects the client.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
