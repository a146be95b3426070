package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/publica-dev/publica/pkg/publica"
)

// Repository implements publica.Repository using in-memory storage. It is
// intended for tests and development. Mutate runs under the write lock,
// which makes transactions on the same document (and, here, on all
// documents) serializable.
type Repository struct {
	mu           sync.RWMutex
	publications map[uuid.UUID]*publica.Publication
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		publications: make(map[uuid.UUID]*publica.Publication),
	}
}

func (r *Repository) Save(ctx context.Context, pub *publica.Publication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to avoid external modifications
	r.publications[pub.ID] = pub.Clone()

	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*publica.Publication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pub, exists := r.publications[id]
	if !exists {
		return nil, publica.ErrPublicationNotFound
	}

	return pub.Clone(), nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.publications[id]; !exists {
		return publica.ErrPublicationNotFound
	}

	delete(r.publications, id)
	return nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*publica.Publication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*publica.Publication
	for _, pub := range r.publications {
		if pub.AccountID == accountID {
			result = append(result, pub.Clone())
		}
	}

	sortNewestFirst(result)
	return result, nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*publica.Publication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*publica.Publication, 0, len(r.publications))
	for _, pub := range r.publications {
		result = append(result, pub.Clone())
	}

	sortNewestFirst(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *Repository) Mutate(ctx context.Context, id uuid.UUID, fn publica.MutateFunc) (*publica.Publication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pub, exists := r.publications[id]
	if !exists {
		return nil, publica.ErrPublicationNotFound
	}

	// fn works on a copy; the stored document only changes if fn succeeds.
	updated := pub.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	r.publications[id] = updated
	return updated.Clone(), nil
}

func sortNewestFirst(pubs []*publica.Publication) {
	sort.Slice(pubs, func(i, j int) bool {
		return pubs[i].CreatedAt.After(pubs[j].CreatedAt)
	})
}
