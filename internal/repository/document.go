package repository

import (
	"context"
	"errors"

	"tripdocs/internal/model"
)

// ErrNotFound is returned by mutations that target a record that does not exist.
// Fetch operations report absence as a nil result instead.
var ErrNotFound = errors.New("record not found")

// DocumentRepository defines data access for documents.
// No business logic here, only persistence operations. Every mutation
// commits before returning and reports commit failures to the caller.
type DocumentRepository interface {
	// FetchByTrip returns the documents of one trip, most recently created first.
	FetchByTrip(ctx context.Context, tripID string) ([]model.Document, error)

	// FetchAll returns every document, most recently created first.
	FetchAll(ctx context.Context) ([]model.Document, error)

	// FetchByID returns the document with the given ID, or nil if there is none.
	FetchByID(ctx context.Context, id string) (*model.Document, error)

	// Insert stores a fully constructed document.
	Insert(ctx context.Context, doc *model.Document) error

	// Update persists fields already mutated by the caller and stamps UpdatedAt.
	Update(ctx context.Context, doc *model.Document) error

	// Delete removes one document. Deleting a missing document is not an error.
	Delete(ctx context.Context, doc *model.Document) error

	// DeleteMany removes all given documents in a single commit.
	DeleteMany(ctx context.Context, docs []model.Document) error
}

// TripRepository is the minimal trip store documents reference.
type TripRepository interface {
	Create(ctx context.Context, trip *model.Trip) error

	// FindByID returns the trip with the given ID, or nil if there is none.
	FindByID(ctx context.Context, id string) (*model.Trip, error)

	// Delete removes the trip and detaches its documents; they are kept.
	Delete(ctx context.Context, id string) error
}
