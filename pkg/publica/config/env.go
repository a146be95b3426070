package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// WithEnv applies environment variable overrides using the provided prefix.
//
// Environment variable mapping:
//
// Server:
//
//	PORT - Server port (default: "8080")
//	ENVIRONMENT - Runtime environment (default: "development")
//
// Database:
//
//	DATABASE_URL - Connection string:
//	               - empty or "memory" for the in-memory repository
//	               - "postgres://..." / "postgresql://..." for Postgres
//	               - "mongodb://..." / "mongodb+srv://..." for MongoDB
//	MONGO_DATABASE - Mongo database name (default: "publica")
//
// Image storage:
//
//	STORAGE_URL - One of:
//	              - "memory://" - In-memory storage (default)
//	              - "s3://bucket?region=us-east-1&endpoint=http://localhost:9000"
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY - S3 credentials
//	PUBLIC_BASE_URL - Optional CDN/base URL objects are served from
//
// Transform service:
//
//	TRANSFORM_URL - Base URL of the image filter service; empty disables
//	                server-side filtering
//
// Feed:
//
//	FEED_LIMIT - Default feed page size (default: 20)
func WithEnv(prefix string) Option {
	return func(c *ServerConfig) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		if err := applyDatabaseEnv(prefix, c); err != nil {
			return err
		}
		if err := applyStorageEnv(prefix, c); err != nil {
			return err
		}

		if v, ok := lookupEnv(prefix, "TRANSFORM_URL"); ok {
			c.TransformURL = v
		}

		if v, ok := lookupEnv(prefix, "FEED_LIMIT"); ok && v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer for %sFEED_LIMIT: %w", prefix, err)
			}
			c.FeedLimit = limit
		}

		return nil
	}
}

// applyDatabaseEnv applies database configuration from environment
func applyDatabaseEnv(prefix string, c *ServerConfig) error {
	dbURL, hasURL := lookupEnv(prefix, "DATABASE_URL")

	if !hasURL || dbURL == "" || dbURL == "memory" {
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
		return nil
	}

	switch {
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	case strings.HasPrefix(dbURL, "mongodb://"), strings.HasPrefix(dbURL, "mongodb+srv://"):
		c.DatabaseType = "mongodb"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory', 'postgresql://...' or 'mongodb://...')", dbURL)
	}

	if v, ok := lookupEnv(prefix, "MONGO_DATABASE"); ok && v != "" {
		c.MongoDatabase = v
	}

	return nil
}

// applyStorageEnv applies image storage configuration from environment
func applyStorageEnv(prefix string, c *ServerConfig) error {
	storageURL, hasURL := lookupEnv(prefix, "STORAGE_URL")

	if !hasURL || storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
		c.StorageType = "memory"
		return nil
	}

	if !strings.HasPrefix(storageURL, "s3://") {
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://' or 's3://...')", storageURL)
	}

	u, err := url.Parse(storageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
	}

	c.StorageType = "s3"
	c.S3.Bucket = u.Host
	if region := u.Query().Get("region"); region != "" {
		c.S3.Region = region
	}
	if endpoint := u.Query().Get("endpoint"); endpoint != "" {
		c.S3.Endpoint = endpoint
		c.S3.UsePathStyle = true
	}

	if accessKey, ok := os.LookupEnv("AWS_ACCESS_KEY_ID"); ok && accessKey != "" {
		c.S3.AccessKeyID = accessKey
	}
	if secretKey, ok := os.LookupEnv("AWS_SECRET_ACCESS_KEY"); ok && secretKey != "" {
		c.S3.SecretAccessKey = secretKey
	}
	if base, ok := lookupEnv(prefix, "PUBLIC_BASE_URL"); ok && base != "" {
		c.S3.PublicBaseURL = base
	}

	return nil
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}
