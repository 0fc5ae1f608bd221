package repository

import (
	"context"
	"sync"

	"tripdocs/internal/model"
)

// SingleWriter confines every store mutation to one writer at a time while
// letting reads proceed concurrently. Document and trip repositories wrapped by
// the same SingleWriter share the lock, since deleting a trip also rewrites
// documents.
type SingleWriter struct {
	mu sync.RWMutex
}

// NewSingleWriter creates a SingleWriter.
func NewSingleWriter() *SingleWriter {
	return &SingleWriter{}
}

// Documents wraps a document repository.
func (w *SingleWriter) Documents(next DocumentRepository) DocumentRepository {
	return &serializedDocuments{w: w, next: next}
}

// Trips wraps a trip repository.
func (w *SingleWriter) Trips(next TripRepository) TripRepository {
	return &serializedTrips{w: w, next: next}
}

type serializedDocuments struct {
	w    *SingleWriter
	next DocumentRepository
}

func (s *serializedDocuments) FetchByTrip(ctx context.Context, tripID string) ([]model.Document, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.next.FetchByTrip(ctx, tripID)
}

func (s *serializedDocuments) FetchAll(ctx context.Context) ([]model.Document, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.next.FetchAll(ctx)
}

func (s *serializedDocuments) FetchByID(ctx context.Context, id string) (*model.Document, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.next.FetchByID(ctx, id)
}

func (s *serializedDocuments) Insert(ctx context.Context, doc *model.Document) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.Insert(ctx, doc)
}

func (s *serializedDocuments) Update(ctx context.Context, doc *model.Document) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.Update(ctx, doc)
}

func (s *serializedDocuments) Delete(ctx context.Context, doc *model.Document) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.Delete(ctx, doc)
}

func (s *serializedDocuments) DeleteMany(ctx context.Context, docs []model.Document) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.DeleteMany(ctx, docs)
}

type serializedTrips struct {
	w    *SingleWriter
	next TripRepository
}

func (s *serializedTrips) Create(ctx context.Context, trip *model.Trip) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.Create(ctx, trip)
}

func (s *serializedTrips) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.next.FindByID(ctx, id)
}

func (s *serializedTrips) Delete(ctx context.Context, id string) error {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	return s.next.Delete(ctx, id)
}
