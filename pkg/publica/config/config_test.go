package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "publica", cfg.MongoDatabase)
	assert.Equal(t, "memory", cfg.StorageType)
	assert.Empty(t, cfg.TransformURL)
	assert.Equal(t, 20, cfg.FeedLimit)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:    "empty port",
			mutate:  func(c *ServerConfig) { c.Port = "" },
			wantErr: "port is required",
		},
		{
			name:    "postgres without url",
			mutate:  func(c *ServerConfig) { c.DatabaseType = "postgres" },
			wantErr: "database_url is required",
		},
		{
			name:    "mongodb without url",
			mutate:  func(c *ServerConfig) { c.DatabaseType = "mongodb" },
			wantErr: "database_url is required",
		},
		{
			name:    "unknown database type",
			mutate:  func(c *ServerConfig) { c.DatabaseType = "dynamo" },
			wantErr: "database_type",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *ServerConfig) { c.StorageType = "s3" },
			wantErr: "bucket is required",
		},
		{
			name:    "unknown storage type",
			mutate:  func(c *ServerConfig) { c.StorageType = "gcs" },
			wantErr: "storage_type",
		},
		{
			name:    "non-positive feed limit",
			mutate:  func(c *ServerConfig) { c.FeedLimit = 0 },
			wantErr: "feed_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadAppliesOptions(t *testing.T) {
	cfg, err := Load(func(c *ServerConfig) error {
		c.Port = "9999"
		c.FeedLimit = 5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, 5, cfg.FeedLimit)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	_, err := Load(func(c *ServerConfig) error {
		c.FeedLimit = -1
		return nil
	})
	assert.Error(t, err)
}

func TestBuildServiceMemory(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	svc, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestBuildTransformClient(t *testing.T) {
	cfg := defaults()
	assert.Nil(t, cfg.BuildTransformClient())

	cfg.TransformURL = "http://localhost:5000"
	assert.NotNil(t, cfg.BuildTransformClient())
}
