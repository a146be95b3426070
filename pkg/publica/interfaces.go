package publica

import (
	"context"

	"github.com/google/uuid"
)

// MutateFunc is applied to the current state of a publication inside a
// repository transaction. The state it leaves behind is what gets committed.
// Returning an error aborts the transaction without writing.
type MutateFunc func(*Publication) error

// Repository defines the interface for publication persistence (the document
// store adapter). One flat collection keyed by publication id.
type Repository interface {
	// Save inserts or replaces the publication keyed by its ID.
	Save(ctx context.Context, pub *Publication) error

	// Get returns the publication with the given id, or
	// ErrPublicationNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Publication, error)

	// Delete removes the publication document. Missing documents are
	// ErrPublicationNotFound.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByAccount returns all publications owned by the account, newest
	// first.
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*Publication, error)

	// ListRecent returns the limit most recent publications across all
	// accounts, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Publication, error)

	// Mutate runs fn against the current document state as a single
	// read-modify-write transaction and returns the committed state.
	// Transactions on the same document id are serializable relative to
	// each other: two concurrent Mutate calls never both commit from the
	// same snapshot. A missing document fails with ErrPublicationNotFound
	// and performs no write.
	Mutate(ctx context.Context, id uuid.UUID, fn MutateFunc) (*Publication, error)
}

// ImageStore defines the interface for image object storage (the object
// store adapter).
type ImageStore interface {
	// Upload stores the image bytes under a freshly generated key inside
	// folder, makes the object publicly readable and returns its public
	// retrieval URL.
	Upload(ctx context.Context, data []byte, folder string) (string, error)

	// Delete removes the object the URL points at. It is best-effort:
	// failures are reported as false, never as a panic or error, so an
	// orphaned object can be cleaned up out of band.
	Delete(ctx context.Context, imageURL string) bool
}

// Transformer defines the interface for the external image filter service.
// Implementations must honor ctx cancellation; the pipeline adds no retries
// on top.
type Transformer interface {
	// Transform applies the named filter to the image bytes and returns
	// the processed bytes.
	Transform(ctx context.Context, image []byte, filterName string) ([]byte, error)
}
