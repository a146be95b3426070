package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/publica-dev/publica/pkg/publica"
	repomemory "github.com/publica-dev/publica/pkg/publica/repo/memory"
	repomongo "github.com/publica-dev/publica/pkg/publica/repo/mongo"
	repopg "github.com/publica-dev/publica/pkg/publica/repo/postgres"
	memorystorage "github.com/publica-dev/publica/pkg/publica/storage/memory"
	s3storage "github.com/publica-dev/publica/pkg/publica/storage/s3"
	"github.com/publica-dev/publica/pkg/publica/transform"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:          "8080",
		Environment:   "development",
		DatabaseType:  "memory",
		MongoDatabase: "publica",
		StorageType:   "memory",
		FeedLimit:     20,
	}
}

// ServerConfig represents server configuration for the publica service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL   string
	DatabaseType  string // "memory", "postgres", "mongodb"
	MongoDatabase string // Mongo database name (default: publica)

	// Image storage configuration
	StorageType string // "memory", "s3"
	S3          s3storage.Config

	// Image transform service; empty disables server-side filtering
	TransformURL string

	// FeedLimit is the default feed size applied at the API boundary
	FeedLimit int
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.DatabaseType {
	case "memory":
	case "postgres", "mongodb":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database_url is required when using %s", c.DatabaseType)
		}
	default:
		return errors.New("database_type must be 'memory', 'postgres' or 'mongodb'")
	}

	switch c.StorageType {
	case "memory":
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return errors.New("storage_type must be 'memory' or 's3'")
	}

	if c.FeedLimit <= 0 {
		return errors.New("feed_limit must be positive")
	}

	return nil
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (publica.Service, error) {
	var options []publica.Option

	repo, err := c.buildRepository(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	options = append(options, publica.WithRepository(repo))

	store, err := c.buildImageStore()
	if err != nil {
		return nil, fmt.Errorf("failed to build image store: %w", err)
	}
	options = append(options, publica.WithImageStore(store))

	if c.TransformURL != "" {
		options = append(options, publica.WithTransformer(transform.NewClient(c.TransformURL)))
	}

	return publica.New(options...)
}

// BuildTransformClient returns the transform client for monitoring
// endpoints, or nil when no transform service is configured.
func (c *ServerConfig) BuildTransformClient() *transform.Client {
	if c.TransformURL == "" {
		return nil
	}
	return transform.NewClient(c.TransformURL)
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository(ctx context.Context) (publica.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return repomemory.New(), nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	case "mongodb":
		client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(c.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		repo := repomongo.New(client.Database(c.MongoDatabase), "")
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// buildImageStore creates an ImageStore based on the configuration
func (c *ServerConfig) buildImageStore() (publica.ImageStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}
