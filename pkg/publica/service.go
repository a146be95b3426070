package publica

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the publica library: the
// publication lifecycle pipeline plus the concurrent mutation operations.
type Service interface {
	// CreatePublication runs the creation pipeline: optional image
	// transform, image upload, document persistence. A requested transform
	// that fails aborts the whole creation; there is no fallback to the
	// unfiltered image.
	CreatePublication(ctx context.Context, req CreatePublicationRequest) (*Publication, error)

	// Read operations
	GetPublication(ctx context.Context, id uuid.UUID) (*Publication, error)
	ListPublicationsByAccount(ctx context.Context, accountID uuid.UUID) ([]*Publication, error)
	Feed(ctx context.Context, req FeedRequest) ([]*Publication, error)

	// Mutations. Each one is a single per-document transaction and returns
	// the committed post-mutation state.
	Like(ctx context.Context, id uuid.UUID) (*Publication, error)
	Unlike(ctx context.Context, id uuid.UUID) (*Publication, error)
	AddComment(ctx context.Context, id uuid.UUID, comment string) (*Publication, error)
	ChangeDescription(ctx context.Context, id uuid.UUID, description string) (*Publication, error)

	// DeletePublication removes the document and, best-effort, its backing
	// image object.
	DeletePublication(ctx context.Context, id uuid.UUID) error
}
