package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/publica-dev/publica/pkg/publica"
)

// Schema documents the expected table. Comments live in a text[] column so
// the ordered list round-trips without a join.
//
//	CREATE TABLE publication (
//	    id             UUID PRIMARY KEY,
//	    account_id     UUID NOT NULL,
//	    description    TEXT NOT NULL DEFAULT '',
//	    image_url      TEXT NOT NULL DEFAULT '',
//	    filter_applied TEXT NOT NULL DEFAULT '',
//	    likes          INTEGER NOT NULL DEFAULT 0,
//	    comments       TEXT[] NOT NULL DEFAULT '{}',
//	    created_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX publication_account_created_idx
//	    ON publication (account_id, created_at DESC);
//	CREATE INDEX publication_created_idx ON publication (created_at DESC);

// DBTX is the subset of pgx the repository needs. Both *pgxpool.Pool and
// *pgx.Conn satisfy it.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Repository implements publica.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("publication already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

const publicationColumns = `id, account_id, description, image_url, filter_applied, likes, comments, created_at`

func scanPublication(row pgx.Row) (*publica.Publication, error) {
	var pub publica.Publication
	err := row.Scan(
		&pub.ID, &pub.AccountID, &pub.Description, &pub.ImageURL,
		&pub.FilterApplied, &pub.Likes, &pub.Comments, &pub.CreatedAt)
	if err != nil {
		return nil, err
	}
	if pub.Comments == nil {
		pub.Comments = []string{}
	}
	return &pub, nil
}

func (r *Repository) Save(ctx context.Context, pub *publica.Publication) error {
	query := `
		INSERT INTO publication (` + publicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			description = EXCLUDED.description,
			image_url = EXCLUDED.image_url,
			filter_applied = EXCLUDED.filter_applied,
			likes = EXCLUDED.likes,
			comments = EXCLUDED.comments,
			created_at = EXCLUDED.created_at`

	comments := pub.Comments
	if comments == nil {
		comments = []string{}
	}

	_, err := r.db.Exec(ctx, query,
		pub.ID, pub.AccountID, pub.Description, pub.ImageURL,
		pub.FilterApplied, pub.Likes, comments, pub.CreatedAt)
	if err != nil {
		return handlePostgresError("save publication", err)
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*publica.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publication WHERE id = $1`

	pub, err := scanPublication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publica.ErrPublicationNotFound
		}
		return nil, handlePostgresError("get publication", err)
	}

	return pub, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM publication WHERE id = $1`, id)
	if err != nil {
		return handlePostgresError("delete publication", err)
	}
	if tag.RowsAffected() == 0 {
		return publica.ErrPublicationNotFound
	}
	return nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*publica.Publication, error) {
	query := `
		SELECT ` + publicationColumns + ` FROM publication
		WHERE account_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, handlePostgresError("list publications by account", err)
	}
	defer rows.Close()

	return collectPublications(rows)
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]*publica.Publication, error) {
	query := `
		SELECT ` + publicationColumns + ` FROM publication
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, handlePostgresError("list recent publications", err)
	}
	defer rows.Close()

	return collectPublications(rows)
}

func collectPublications(rows pgx.Rows) ([]*publica.Publication, error) {
	var pubs []*publica.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pubs, nil
}

// Mutate runs fn inside a transaction that holds a row lock on the document
// (SELECT ... FOR UPDATE), so concurrent transactions on the same id
// serialize at the database.
func (r *Repository) Mutate(ctx context.Context, id uuid.UUID, fn publica.MutateFunc) (*publica.Publication, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handlePostgresError("begin mutation", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + publicationColumns + ` FROM publication WHERE id = $1 FOR UPDATE`
	pub, err := scanPublication(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publica.ErrPublicationNotFound
		}
		return nil, handlePostgresError("read for mutation", err)
	}

	if err := fn(pub); err != nil {
		return nil, err
	}

	update := `
		UPDATE publication SET
			description = $2, likes = $3, comments = $4
		WHERE id = $1`
	if _, err := tx.Exec(ctx, update, pub.ID, pub.Description, pub.Likes, pub.Comments); err != nil {
		return nil, handlePostgresError("write mutation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, handlePostgresError("commit mutation", err)
	}

	return pub, nil
}
