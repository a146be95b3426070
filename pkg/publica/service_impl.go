package publica

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository  Repository
	images      ImageStore
	transformer Transformer
	logger      *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithImageStore sets the image store for the service
func WithImageStore(store ImageStore) Option {
	return func(s *service) {
		s.images = store
	}
}

// WithTransformer sets the image transform client for the service
func WithTransformer(t Transformer) Option {
	return func(s *service) {
		s.transformer = t
	}
}

// WithLogger sets the logger used for best-effort failure reporting
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// CreatePublication runs the three-step creation pipeline. Each step commits
// only after the previous one fully returned, so cancellation anywhere
// before persistence leaves no partial document behind.
func (s *service) CreatePublication(ctx context.Context, req CreatePublicationRequest) (*Publication, error) {
	image := req.Image
	filterApplied := ""

	if len(image) > 0 && req.Filter.Requested() {
		if s.transformer == nil {
			return nil, ErrNoTransformer
		}
		transformed, err := s.transformer.Transform(ctx, image, req.Filter.Name())
		if err != nil {
			return nil, &TransformError{FilterName: req.Filter.Name(), Err: err}
		}
		image = transformed
		filterApplied = req.Filter.Name()
	}

	imageURL := ""
	if len(image) > 0 {
		if s.images == nil {
			return nil, ErrNoImageStore
		}
		url, err := s.images.Upload(ctx, image, ImageFolder)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	pub := &Publication{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		Description:   req.Description,
		ImageURL:      imageURL,
		FilterApplied: filterApplied,
		Likes:         0,
		Comments:      []string{},
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repository.Save(ctx, pub); err != nil {
		// The uploaded object is not rolled back; an orphaned object is
		// recoverable out of band, a half-created document is not.
		if imageURL != "" {
			s.logger.Warn("publication persist failed after image upload, object orphaned",
				"publication_id", pub.ID, "image_url", imageURL)
		}
		return nil, &PublicationError{PublicationID: pub.ID, Op: "create", Err: err}
	}

	return pub, nil
}

func (s *service) GetPublication(ctx context.Context, id uuid.UUID) (*Publication, error) {
	return s.repository.Get(ctx, id)
}

func (s *service) ListPublicationsByAccount(ctx context.Context, accountID uuid.UUID) ([]*Publication, error) {
	return s.repository.ListByAccount(ctx, accountID)
}

func (s *service) Feed(ctx context.Context, req FeedRequest) ([]*Publication, error) {
	return s.repository.ListRecent(ctx, req.Limit)
}

func (s *service) Like(ctx context.Context, id uuid.UUID) (*Publication, error) {
	pub, err := s.repository.Mutate(ctx, id, func(p *Publication) error {
		p.Likes++
		return nil
	})
	if err != nil {
		return nil, &PublicationError{PublicationID: id, Op: "like", Err: err}
	}
	return pub, nil
}

func (s *service) Unlike(ctx context.Context, id uuid.UUID) (*Publication, error) {
	pub, err := s.repository.Mutate(ctx, id, func(p *Publication) error {
		// Clamped at zero: unliking an unliked publication is a no-op,
		// not an error.
		if p.Likes > 0 {
			p.Likes--
		}
		return nil
	})
	if err != nil {
		return nil, &PublicationError{PublicationID: id, Op: "unlike", Err: err}
	}
	return pub, nil
}

func (s *service) AddComment(ctx context.Context, id uuid.UUID, comment string) (*Publication, error) {
	pub, err := s.repository.Mutate(ctx, id, func(p *Publication) error {
		p.Comments = append(p.Comments, comment)
		return nil
	})
	if err != nil {
		return nil, &PublicationError{PublicationID: id, Op: "comment", Err: err}
	}
	return pub, nil
}

func (s *service) ChangeDescription(ctx context.Context, id uuid.UUID, description string) (*Publication, error) {
	pub, err := s.repository.Mutate(ctx, id, func(p *Publication) error {
		// Last writer wins; a single scalar field with no cross-field
		// invariant needs no conflict detection.
		p.Description = description
		return nil
	})
	if err != nil {
		return nil, &PublicationError{PublicationID: id, Op: "change_description", Err: err}
	}
	return pub, nil
}

// DeletePublication deletes the document last: an orphaned stored object is
// the lesser failure mode compared to a document whose image is gone.
func (s *service) DeletePublication(ctx context.Context, id uuid.UUID) error {
	pub, err := s.repository.Get(ctx, id)
	if err != nil {
		return &PublicationError{PublicationID: id, Op: "delete", Err: err}
	}

	if pub.ImageURL != "" && s.images != nil {
		if ok := s.images.Delete(ctx, pub.ImageURL); !ok {
			s.logger.Warn("image object delete failed, object orphaned",
				"publication_id", id, "image_url", pub.ImageURL)
		}
	}

	if err := s.repository.Delete(ctx, id); err != nil {
		return &PublicationError{PublicationID: id, Op: "delete", Err: err}
	}

	return nil
}
