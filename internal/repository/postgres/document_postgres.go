package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"
)

const documentColumns = `id, type, title, content, file_name, mime_type, byte_size, created_at, updated_at, notes, trip_id`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(s rowScanner) (model.Document, error) {
	var d model.Document
	err := s.Scan(
		&d.ID,
		&d.Type,
		&d.Title,
		&d.Content,
		&d.FileName,
		&d.MimeType,
		&d.ByteSize,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.Notes,
		&d.TripID,
	)
	return d, err
}

// FetchByTrip returns the trip's documents ordered by creation time, newest first.
func (r *DocumentPostgres) FetchByTrip(ctx context.Context, tripID string) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE trip_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.queryMany(ctx, q, tripID)
}

// FetchAll returns every document ordered by creation time, newest first.
func (r *DocumentPostgres) FetchAll(ctx context.Context) ([]model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, id DESC
	`
	return r.queryMany(ctx, q)
}

// FetchByID returns a single document, or nil when no row matches.
func (r *DocumentPostgres) FetchByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	return &d, nil
}

// Insert adds a new document row.
func (r *DocumentPostgres) Insert(ctx context.Context, doc *model.Document) error {
	const q = `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, q,
		doc.ID,
		doc.Type,
		doc.Title,
		doc.Content,
		doc.FileName,
		doc.MimeType,
		doc.ByteSize,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.Notes,
		doc.TripID,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// Update stamps UpdatedAt and writes the mutable columns back.
func (r *DocumentPostgres) Update(ctx context.Context, doc *model.Document) error {
	const q = `
		UPDATE documents
		SET title = $1, content = $2, byte_size = $3, notes = $4, updated_at = $5
		WHERE id = $6
	`
	doc.Touch(r.now())
	res, err := r.db.ExecContext(ctx, q,
		doc.Title,
		doc.Content,
		doc.ByteSize,
		doc.Notes,
		doc.UpdatedAt,
		doc.ID,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, doc *model.Document) error {
	const q = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// DeleteMany removes the given documents inside one transaction.
func (r *DocumentPostgres) DeleteMany(ctx context.Context, docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	const q = `DELETE FROM documents WHERE id = $1`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete documents: %w", err)
	}
	for _, d := range docs {
		if _, err := tx.ExecContext(ctx, q, d.ID); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("delete document %s: %w", d.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete documents: %w", err)
	}
	return nil
}

func (r *DocumentPostgres) queryMany(ctx context.Context, q string, args ...any) ([]model.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	return items, nil
}
