package publica

import "github.com/google/uuid"

// Request DTOs

// CreatePublicationRequest contains parameters for creating a publication.
//
// Image may be nil, in which case no transform or upload happens and the
// publication has no image. Filter is only consulted when Image is present.
type CreatePublicationRequest struct {
	AccountID   uuid.UUID
	Description string
	Image       []byte
	Filter      Filter
}

// FeedRequest contains parameters for the global feed. Limit must be
// positive; the caller-facing boundary is responsible for defaulting it.
type FeedRequest struct {
	Limit int
}
