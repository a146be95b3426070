package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/publica-dev/publica/pkg/publica"
	"github.com/publica-dev/publica/pkg/publica/objectkey"
)

// Store is an in-memory implementation of the publica.ImageStore interface,
// for tests and development. URLs use the memory:// scheme.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte
	keys    objectkey.Generator
}

// New creates a new in-memory image store
func New() *Store {
	return &Store{
		objects: make(map[string][]byte),
		keys:    objectkey.NewRecommendedGenerator(),
	}
}

func (s *Store) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &publica.StorageError{Backend: "memory", Op: "upload", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	url := fmt.Sprintf("memory://%s", s.keys.GenerateKey(folder))
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[url] = stored

	return url, nil
}

func (s *Store) Delete(ctx context.Context, imageURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[imageURL]; !exists {
		return false
	}
	delete(s.objects, imageURL)
	return true
}

// Get returns the stored bytes for a URL. Test helper.
func (s *Store) Get(imageURL string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.objects[imageURL]
	if !exists {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

// Len returns the number of stored objects. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
