// Package memory is an in-process implementation of the document and trip
// repositories. Records are copied on the way in and out so callers never
// share slices or pointers with the store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"
)

// Store holds trips and documents behind one lock so that deleting a trip and
// detaching its documents happen atomically.
type Store struct {
	mu        sync.RWMutex
	documents map[string]model.Document
	trips     map[string]model.Trip
	now       func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]model.Document),
		trips:     make(map[string]model.Trip),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Documents returns the document repository view of the store.
func (s *Store) Documents() *DocumentMemory {
	return &DocumentMemory{s: s}
}

// Trips returns the trip repository view of the store.
func (s *Store) Trips() *TripMemory {
	return &TripMemory{s: s}
}

// DocumentMemory implements repository.DocumentRepository on a Store.
type DocumentMemory struct {
	s *Store
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (r *DocumentMemory) FetchByTrip(ctx context.Context, tripID string) ([]model.Document, error) {
	return r.fetch(func(d *model.Document) bool {
		return d.TripID != nil && *d.TripID == tripID
	}), nil
}

func (r *DocumentMemory) FetchAll(ctx context.Context) ([]model.Document, error) {
	return r.fetch(func(*model.Document) bool { return true }), nil
}

func (r *DocumentMemory) FetchByID(ctx context.Context, id string) (*model.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.documents[id]
	if !ok {
		return nil, nil
	}
	out := cloneDocument(d)
	return &out, nil
}

func (r *DocumentMemory) Insert(ctx context.Context, doc *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

func (r *DocumentMemory) Update(ctx context.Context, doc *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.documents[doc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Touch(r.s.now())

	stored.Title = doc.Title
	stored.Content = doc.Content
	stored.ByteSize = doc.ByteSize
	stored.Notes = doc.Notes
	stored.UpdatedAt = doc.UpdatedAt
	r.s.documents[doc.ID] = cloneDocument(stored)
	return nil
}

func (r *DocumentMemory) Delete(ctx context.Context, doc *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.documents, doc.ID)
	return nil
}

func (r *DocumentMemory) DeleteMany(ctx context.Context, docs []model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range docs {
		delete(r.s.documents, d.ID)
	}
	return nil
}

func (r *DocumentMemory) fetch(match func(*model.Document) bool) []model.Document {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Document, 0)
	for _, d := range r.s.documents {
		if match(&d) {
			out = append(out, cloneDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TripMemory implements repository.TripRepository on a Store.
type TripMemory struct {
	s *Store
}

var _ repository.TripRepository = (*TripMemory)(nil)

func (r *TripMemory) Create(ctx context.Context, trip *model.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.trips[trip.ID] = *trip
	return nil
}

func (r *TripMemory) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.trips[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// Delete removes the trip and nullifies TripID on every document that referenced it.
func (r *TripMemory) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.trips[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.trips, id)

	for docID, d := range r.s.documents {
		if d.TripID != nil && *d.TripID == id {
			d.TripID = nil
			r.s.documents[docID] = d
		}
	}
	return nil
}

func cloneDocument(d model.Document) model.Document {
	if d.Content != nil {
		d.Content = append([]byte(nil), d.Content...)
	}
	d.FileName = cloneString(d.FileName)
	d.MimeType = cloneString(d.MimeType)
	d.Notes = cloneString(d.Notes)
	d.TripID = cloneString(d.TripID)
	return d
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
