package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBucket(t *testing.T) {
	store, err := New(Config{})
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name:     "aws virtual host style",
			config:   Config{Bucket: "images", Region: "eu-west-1"},
			expected: "https://images.s3.eu-west-1.amazonaws.com",
		},
		{
			name:     "custom endpoint is path style",
			config:   Config{Bucket: "images", Endpoint: "http://localhost:9000"},
			expected: "http://localhost:9000/images",
		},
		{
			name:     "endpoint trailing slash is trimmed",
			config:   Config{Bucket: "images", Endpoint: "http://localhost:9000/"},
			expected: "http://localhost:9000/images",
		},
		{
			name:     "explicit public base url wins",
			config:   Config{Bucket: "images", Endpoint: "http://localhost:9000", PublicBaseURL: "https://cdn.example.com/"},
			expected: "https://cdn.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, publicBaseURL(tt.config))
		})
	}
}

func TestKeyFromURL(t *testing.T) {
	store := &Store{
		bucket:  "images",
		baseURL: "http://localhost:9000/images",
	}

	t.Run("minted url", func(t *testing.T) {
		key, err := store.keyFromURL("http://localhost:9000/images/publications/abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, "publications/abc.jpg", key)
	})

	t.Run("path style with different host", func(t *testing.T) {
		key, err := store.keyFromURL("https://minio.internal/images/publications/abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, "publications/abc.jpg", key)
	})

	t.Run("virtual host style", func(t *testing.T) {
		key, err := store.keyFromURL("https://images.s3.us-east-1.amazonaws.com/publications/abc.jpg")
		require.NoError(t, err)
		assert.Equal(t, "publications/abc.jpg", key)
	})

	t.Run("foreign url", func(t *testing.T) {
		_, err := store.keyFromURL("https://example.com/other/abc.jpg")
		assert.Error(t, err)
	})

	t.Run("bare bucket url", func(t *testing.T) {
		_, err := store.keyFromURL("http://localhost:9000/images/")
		assert.Error(t, err)
	})
}
