package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var documentRowColumns = []string{
	"id", "type", "title", "content", "file_name", "mime_type",
	"byte_size", "created_at", "updated_at", "notes", "trip_id",
}

func strPtr(s string) *string { return &s }

func TestDocumentPostgres_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:        "doc-1",
		Type:      model.DocumentTypePDF,
		Title:     "Boarding pass",
		Content:   []byte("%PDF-1.7"),
		FileName:  strPtr("pass.pdf"),
		MimeType:  strPtr("application/pdf"),
		ByteSize:  8,
		CreatedAt: now,
		UpdatedAt: now,
		TripID:    strPtr("trip-1"),
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO documents").
			WithArgs(doc.ID, doc.Type, doc.Title, doc.Content, doc.FileName, doc.MimeType,
				doc.ByteSize, doc.CreatedAt, doc.UpdatedAt, doc.Notes, doc.TripID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Insert(ctx, doc))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure surfaces", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO documents").
			WillReturnError(errors.New("disk full"))

		err := repo.Insert(ctx, doc)
		assert.ErrorContains(t, err, "insert document: disk full")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_FetchByTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	newer := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	t.Run("returns rows in query order", func(t *testing.T) {
		rows := sqlmock.NewRows(documentRowColumns).
			AddRow("b", "image", "Hotel", []byte{1, 2, 3}, "hotel.png", "image/png", 3, newer, newer, nil, "trip-1").
			AddRow("a", "note", "Plan", []byte("hi"), nil, nil, 2, older, older, "bring passport", "trip-1")

		mock.ExpectQuery(`SELECT (.+) FROM documents WHERE trip_id = \$1 ORDER BY created_at DESC, id DESC`).
			WithArgs("trip-1").
			WillReturnRows(rows)

		docs, err := repo.FetchByTrip(ctx, "trip-1")
		require.NoError(t, err)
		require.Len(t, docs, 2)

		assert.Equal(t, "b", docs[0].ID)
		assert.Equal(t, model.DocumentTypeImage, docs[0].Type)
		assert.Equal(t, "hotel.png", *docs[0].FileName)
		assert.Nil(t, docs[0].Notes)
		assert.Equal(t, int64(3), docs[0].ByteSize)

		assert.Equal(t, "a", docs[1].ID)
		assert.Nil(t, docs[1].FileName)
		assert.Equal(t, "bring passport", *docs[1].Notes)
		assert.Equal(t, "trip-1", *docs[1].TripID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE trip_id").
			WithArgs("trip-2").
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		docs, err := repo.FetchByTrip(ctx, "trip-2")
		assert.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})
}

func TestDocumentPostgres_FetchAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows(documentRowColumns).
		AddRow("orphan", "other", "Receipt", []byte("x"), "r.zip", nil, 1, now, now, nil, nil)

	mock.ExpectQuery(`SELECT (.+) FROM documents ORDER BY created_at DESC`).
		WillReturnRows(rows)

	docs, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Nil(t, docs[0].TripID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FetchByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		now := time.Now().UTC()
		rows := sqlmock.NewRows(documentRowColumns).
			AddRow("doc-1", "pdf", "Visa", []byte("pdf"), "visa.pdf", "application/pdf", 3, now, now, nil, "trip-1")

		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("doc-1").
			WillReturnRows(rows)

		doc, err := repo.FetchByID(ctx, "doc-1")
		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, []byte("pdf"), doc.Content)
	})

	t.Run("absent is not an error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FetchByID(ctx, "missing")
		assert.NoError(t, err)
		assert.Nil(t, doc)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("boom").
			WillReturnError(errors.New("conn reset"))

		doc, err := repo.FetchByID(ctx, "boom")
		assert.Error(t, err)
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stamp := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := NewDocumentPostgres(db)
	repo.now = func() time.Time { return stamp }
	ctx := context.Background()

	created := stamp.Add(-time.Hour)
	doc := &model.Document{
		ID:        "doc-1",
		Title:     "Visa",
		Content:   []byte("abc"),
		ByteSize:  3,
		Notes:     strPtr("renew in May"),
		CreatedAt: created,
		UpdatedAt: created,
	}

	t.Run("stamps updated_at", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET").
			WithArgs(doc.Title, doc.Content, doc.ByteSize, doc.Notes, stamp, doc.ID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(ctx, doc))
		assert.Equal(t, stamp, doc.UpdatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE documents SET").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, doc)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(context.Background(), &model.Document{ID: "doc-1"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_DeleteMany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	docs := []model.Document{{ID: "a"}, {ID: "b"}}

	t.Run("single commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.DeleteMany(ctx, docs))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM documents WHERE id = ?").WithArgs("b").WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		err := repo.DeleteMany(ctx, docs)
		assert.ErrorContains(t, err, "lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty is a no-op", func(t *testing.T) {
		assert.NoError(t, repo.DeleteMany(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
