package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const defaultConnectTimeout = 10 * time.Second

// clientOptions reads from the primary with majority writes, so a record is
// visible to the next ReadOnce from any replica of the service.
func clientOptions(cfg *config.MongoConfig) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("class-service").
		SetReadPreference(readpref.Primary()).
		SetWriteConcern(writeconcern.Majority())

	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}
	if cfg.MinPoolSize > 0 {
		opts.SetMinPoolSize(cfg.MinPoolSize)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

// NewMongoDBConnection connects and pings within cfg.ConnectTimeout.
func NewMongoDBConnection(cfg *config.MongoConfig) (*mongo.Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo %s: %w", cfg.URI, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo %s: %w", cfg.URI, err)
	}
	return client, nil
}
