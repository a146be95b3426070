package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/publica-dev/publica/pkg/publica"
)

// AccountIDHeader carries the acting account's id on inbound requests. The
// gateway in front of this service is responsible for authenticating it.
const AccountIDHeader = "X-Account-ID"

// DefaultFeedLimit bounds the feed when the client doesn't ask for a size.
const DefaultFeedLimit = 20

// maxImageBytes bounds the multipart image part on create.
const maxImageBytes = 10 << 20 // 10 MiB

// PublicationResponse is the response body for a publication
type PublicationResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image_url,omitempty"`
	FilterApplied string    `json:"filter_applied,omitempty"`
	Likes         int       `json:"likes"`
	Comments      []string  `json:"comments"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(pub *publica.Publication) PublicationResponse {
	comments := pub.Comments
	if comments == nil {
		comments = []string{}
	}
	return PublicationResponse{
		ID:            pub.ID.String(),
		AccountID:     pub.AccountID.String(),
		Description:   pub.Description,
		ImageURL:      pub.ImageURL,
		FilterApplied: pub.FilterApplied,
		Likes:         pub.Likes,
		Comments:      comments,
		CreatedAt:     pub.CreatedAt,
	}
}

func toResponseList(pubs []*publica.Publication) []PublicationResponse {
	out := make([]PublicationResponse, 0, len(pubs))
	for _, pub := range pubs {
		out = append(out, toResponse(pub))
	}
	return out
}

// CommentRequest is the request body for adding a comment
type CommentRequest struct {
	Comment string `json:"comment"`
}

// DescriptionRequest is the request body for changing the description
type DescriptionRequest struct {
	Description string `json:"description"`
}

// PublicationHandler handles HTTP requests for publications
type PublicationHandler struct {
	service   publica.Service
	feedLimit int
}

// NewPublicationHandler creates a new publication handler. feedLimit is the
// default feed size; non-positive means DefaultFeedLimit.
func NewPublicationHandler(service publica.Service, feedLimit int) *PublicationHandler {
	if feedLimit <= 0 {
		feedLimit = DefaultFeedLimit
	}
	return &PublicationHandler{service: service, feedLimit: feedLimit}
}

// Routes returns the routes for publications
func (h *PublicationHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreatePublication)
	r.Get("/feed", h.Feed)
	r.Get("/account/{accountID}", h.ListByAccount)
	r.Get("/{publicationID}", h.GetPublication)
	r.Delete("/{publicationID}", h.DeletePublication)

	r.Post("/{publicationID}/like", h.Like)
	r.Delete("/{publicationID}/like", h.Unlike)
	r.Post("/{publicationID}/comments", h.AddComment)
	r.Put("/{publicationID}/description", h.ChangeDescription)

	return r
}

// CreatePublication creates a new publication from a multipart form with a
// "description" field, an optional "filter" field and an optional "image"
// file part.
func (h *PublicationHandler) CreatePublication(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.Header.Get(AccountIDHeader))
	if err != nil {
		http.Error(w, "missing or invalid "+AccountIDHeader+" header", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	var image []byte
	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image, err = io.ReadAll(io.LimitReader(file, maxImageBytes))
		if err != nil {
			http.Error(w, "failed to read image", http.StatusBadRequest)
			return
		}
	}

	pub, err := h.service.CreatePublication(r.Context(), publica.CreatePublicationRequest{
		AccountID:   accountID,
		Description: r.FormValue("description"),
		Image:       image,
		Filter:      publica.ParseFilter(r.FormValue("filter")),
	})
	if err != nil {
		h.renderError(w, r, "create publication", err)
		return
	}

	slog.Info("publication created", "publication_id", pub.ID, "account_id", accountID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toResponse(pub))
}

// GetPublication returns a publication by id
func (h *PublicationHandler) GetPublication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	pub, err := h.service.GetPublication(r.Context(), id)
	if err != nil {
		h.renderError(w, r, "get publication", err)
		return
	}

	render.JSON(w, r, toResponse(pub))
}

// ListByAccount returns an account's publications, newest first
func (h *PublicationHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		http.Error(w, "invalid account ID", http.StatusBadRequest)
		return
	}

	pubs, err := h.service.ListPublicationsByAccount(r.Context(), accountID)
	if err != nil {
		h.renderError(w, r, "list publications", err)
		return
	}

	render.JSON(w, r, toResponseList(pubs))
}

// Feed returns the most recent publications across all accounts. The limit
// query parameter is optional; it is defaulted and bounded here, not in the
// core.
func (h *PublicationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit := h.feedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	pubs, err := h.service.Feed(r.Context(), publica.FeedRequest{Limit: limit})
	if err != nil {
		h.renderError(w, r, "feed", err)
		return
	}

	render.JSON(w, r, toResponseList(pubs))
}

// Like increments the publication's like counter
func (h *PublicationHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	pub, err := h.service.Like(r.Context(), id)
	if err != nil {
		h.renderError(w, r, "like", err)
		return
	}

	render.JSON(w, r, toResponse(pub))
}

// Unlike decrements the publication's like counter, never below zero
func (h *PublicationHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	pub, err := h.service.Unlike(r.Context(), id)
	if err != nil {
		h.renderError(w, r, "unlike", err)
		return
	}

	render.JSON(w, r, toResponse(pub))
}

// AddComment appends a comment to the publication
func (h *PublicationHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	var req CommentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pub, err := h.service.AddComment(r.Context(), id, req.Comment)
	if err != nil {
		h.renderError(w, r, "add comment", err)
		return
	}

	render.JSON(w, r, toResponse(pub))
}

// ChangeDescription overwrites the publication's description
func (h *PublicationHandler) ChangeDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	var req DescriptionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pub, err := h.service.ChangeDescription(r.Context(), id, req.Description)
	if err != nil {
		h.renderError(w, r, "change description", err)
		return
	}

	render.JSON(w, r, toResponse(pub))
}

// DeletePublication deletes a publication and its backing image
func (h *PublicationHandler) DeletePublication(w http.ResponseWriter, r *http.Request) {
	id, ok := h.publicationID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePublication(r.Context(), id); err != nil {
		h.renderError(w, r, "delete publication", err)
		return
	}

	render.NoContent(w, r)
}

func (h *PublicationHandler) publicationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "publicationID"))
	if err != nil {
		http.Error(w, "invalid publication ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// renderError maps the error taxonomy onto status codes: not-found is the
// caller's mistake (404), transform and storage failures are infrastructure
// errors worth retrying (502), everything else is a 500.
func (h *PublicationHandler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var transformErr *publica.TransformError
	var storageErr *publica.StorageError

	switch {
	case publica.IsNotFound(err):
		http.Error(w, "publication not found", http.StatusNotFound)
	case errors.As(err, &transformErr):
		slog.Error("transform failed", "op", op, "filter", transformErr.FilterName, "error", err)
		http.Error(w, "image transform failed", http.StatusBadGateway)
	case errors.As(err, &storageErr):
		slog.Error("storage failed", "op", op, "error", err)
		http.Error(w, "image storage failed", http.StatusBadGateway)
	default:
		slog.Error("operation failed", "op", op, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
