package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/publica-dev/publica/pkg/publica"
)

// DefaultCollection is the collection publications are stored in.
const DefaultCollection = "publications"

// publicationDoc is the stored shape of a publication. The revision field is
// internal to this backend: it drives the optimistic concurrency check in
// Mutate and never leaves the repository.
type publicationDoc struct {
	ID            string    `bson:"_id"`
	AccountID     string    `bson:"account_id"`
	Description   string    `bson:"description"`
	ImageURL      string    `bson:"image_url,omitempty"`
	FilterApplied string    `bson:"filter_applied,omitempty"`
	Likes         int       `bson:"likes"`
	Comments      []string  `bson:"comments"`
	CreatedAt     time.Time `bson:"created_at"`
	Revision      int64     `bson:"revision"`
}

func toDoc(pub *publica.Publication, revision int64) *publicationDoc {
	comments := pub.Comments
	if comments == nil {
		comments = []string{}
	}
	return &publicationDoc{
		ID:            pub.ID.String(),
		AccountID:     pub.AccountID.String(),
		Description:   pub.Description,
		ImageURL:      pub.ImageURL,
		FilterApplied: pub.FilterApplied,
		Likes:         pub.Likes,
		Comments:      comments,
		CreatedAt:     pub.CreatedAt.UTC(),
		Revision:      revision,
	}
}

func (d *publicationDoc) toPublication() (*publica.Publication, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid publication id %q: %w", d.ID, err)
	}
	accountID, err := uuid.Parse(d.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", d.AccountID, err)
	}
	comments := d.Comments
	if comments == nil {
		// Older documents may lack the field entirely; absent means empty.
		comments = []string{}
	}
	return &publica.Publication{
		ID:            id,
		AccountID:     accountID,
		Description:   d.Description,
		ImageURL:      d.ImageURL,
		FilterApplied: d.FilterApplied,
		Likes:         d.Likes,
		Comments:      comments,
		CreatedAt:     d.CreatedAt,
	}, nil
}

// Repository implements publica.Repository using MongoDB
type Repository struct {
	collection *mongo.Collection
}

// New creates a new MongoDB repository on the given database, using
// DefaultCollection when collection is empty.
func New(db *mongo.Database, collection string) *Repository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Repository{collection: db.Collection(collection)}
}

// EnsureIndexes creates the indexes the list queries rely on: account_id
// equality combined with created_at descending, and created_at descending on
// its own for the feed.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create publication indexes: %w", err)
	}
	return nil
}

func (r *Repository) Save(ctx context.Context, pub *publica.Publication) error {
	doc := toDoc(pub, 0)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save publication: %w", err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*publica.Publication, error) {
	doc, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toPublication()
}

func (r *Repository) getDoc(ctx context.Context, id uuid.UUID) (*publicationDoc, error) {
	var doc publicationDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, publica.ErrPublicationNotFound
		}
		return nil, fmt.Errorf("failed to get publication: %w", err)
	}
	return &doc, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete publication: %w", err)
	}
	if res.DeletedCount == 0 {
		return publica.ErrPublicationNotFound
	}
	return nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*publica.Publication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"account_id": accountID.String()}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list publications by account: %w", err)
	}
	return decodeAll(ctx, cursor)
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*publica.Publication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent publications: %w", err)
	}
	return decodeAll(ctx, cursor)
}

func decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]*publica.Publication, error) {
	defer cursor.Close(ctx)

	var pubs []*publica.Publication
	for cursor.Next(ctx) {
		var doc publicationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode publication: %w", err)
		}
		pub, err := doc.toPublication()
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate publications: %w", err)
	}
	return pubs, nil
}

// Mutate implements the per-document transaction as an optimistic CAS loop:
// the replacement is filtered on the revision that was read, so a concurrent
// writer that commits first makes this replace match nothing and the loop
// re-reads. No two transactions on the same document ever commit from the
// same snapshot.
func (r *Repository) Mutate(ctx context.Context, id uuid.UUID, fn publica.MutateFunc) (*publica.Publication, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := r.getDoc(ctx, id)
		if err != nil {
			return nil, err
		}

		pub, err := doc.toPublication()
		if err != nil {
			return nil, err
		}
		if err := fn(pub); err != nil {
			return nil, err
		}

		updated := toDoc(pub, doc.Revision+1)
		res, err := r.collection.ReplaceOne(ctx,
			bson.M{"_id": doc.ID, "revision": doc.Revision}, updated)
		if err != nil {
			return nil, fmt.Errorf("failed to commit publication mutation: %w", err)
		}
		if res.ModifiedCount == 1 {
			return pub, nil
		}
		// Lost the race against a concurrent mutation (or the document
		// vanished); loop and re-read.
	}
}
