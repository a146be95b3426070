package publica

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrPublicationNotFound indicates a publication was not found
	ErrPublicationNotFound = errors.New("publication not found")

	// ErrNoImageStore indicates no image store is configured for an operation
	// that needs one
	ErrNoImageStore = errors.New("no image store configured")

	// ErrNoTransformer indicates a filter was requested but no transform
	// client is configured
	ErrNoTransformer = errors.New("no transformer configured")
)

// PublicationError represents an error related to a publication operation
type PublicationError struct {
	PublicationID uuid.UUID
	Op            string
	Err           error
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("publication operation %s failed for publication %s: %v", e.Op, e.PublicationID, e.Err)
}

func (e *PublicationError) Unwrap() error {
	return e.Err
}

// TransformError represents a failure of the external image transform
// service. Creation is aborted when it occurs; there is no fallback to the
// unfiltered image.
type TransformError struct {
	FilterName string
	Err        error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("image transform failed for filter %q: %v", e.FilterName, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to image object storage
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a not-found error, the only error class
// callers should treat as their own mistake rather than an infrastructure
// failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPublicationNotFound)
}
