package repository

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tripdocs/internal/model"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "document_cache_hits_total",
		Help: "Total number of document lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "document_cache_misses_total",
		Help: "Total number of document lookups that went to the store.",
	})
)

// DocumentCache is a read-through LRU cache with TTL in front of FetchByID.
// Every mutation evicts the affected entries after the store accepted it.
type DocumentCache struct {
	next  DocumentRepository
	cache *expirable.LRU[string, model.Document]
}

// NewDocumentCache wraps next with a cache of at most size entries living ttl each.
func NewDocumentCache(next DocumentRepository, size int, ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		next:  next,
		cache: expirable.NewLRU[string, model.Document](size, nil, ttl),
	}
}

var _ DocumentRepository = (*DocumentCache)(nil)

func (c *DocumentCache) FetchByTrip(ctx context.Context, tripID string) ([]model.Document, error) {
	return c.next.FetchByTrip(ctx, tripID)
}

func (c *DocumentCache) FetchAll(ctx context.Context) ([]model.Document, error) {
	return c.next.FetchAll(ctx)
}

// FetchByID returns a copy of the cached record so callers can mutate it freely.
func (c *DocumentCache) FetchByID(ctx context.Context, id string) (*model.Document, error) {
	if d, ok := c.cache.Get(id); ok {
		cacheHitsTotal.Inc()
		return &d, nil
	}
	cacheMissesTotal.Inc()

	d, err := c.next.FetchByID(ctx, id)
	if err != nil || d == nil {
		return d, err
	}
	// id may alias a reused request buffer.
	c.cache.Add(strings.Clone(id), *d)
	return d, nil
}

func (c *DocumentCache) Insert(ctx context.Context, doc *model.Document) error {
	return c.next.Insert(ctx, doc)
}

func (c *DocumentCache) Update(ctx context.Context, doc *model.Document) error {
	err := c.next.Update(ctx, doc)
	c.cache.Remove(doc.ID)
	return err
}

func (c *DocumentCache) Delete(ctx context.Context, doc *model.Document) error {
	err := c.next.Delete(ctx, doc)
	c.cache.Remove(doc.ID)
	return err
}

func (c *DocumentCache) DeleteMany(ctx context.Context, docs []model.Document) error {
	err := c.next.DeleteMany(ctx, docs)
	for _, d := range docs {
		c.cache.Remove(d.ID)
	}
	return err
}

// Trips wraps a trip repository so that deleting a trip drops every cached
// document; their TripID may just have been nullified.
func (c *DocumentCache) Trips(next TripRepository) TripRepository {
	return &purgingTrips{TripRepository: next, cache: c}
}

type purgingTrips struct {
	TripRepository
	cache *DocumentCache
}

func (p *purgingTrips) Delete(ctx context.Context, id string) error {
	err := p.TripRepository.Delete(ctx, id)
	p.cache.cache.Purge()
	return err
}
