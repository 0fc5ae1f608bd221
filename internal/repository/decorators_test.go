package repository_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"
	"tripdocs/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// slowDocuments counts how many writers are inside the store at once.
type slowDocuments struct {
	repository.DocumentRepository
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (s *slowDocuments) Insert(ctx context.Context, doc *model.Document) error {
	n := s.active.Add(1)
	for {
		prev := s.maxSeen.Load()
		if n <= prev || s.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	s.active.Add(-1)
	return nil
}

func TestSingleWriter_SerializesMutations(t *testing.T) {
	next := &slowDocuments{}
	docs := repository.NewSingleWriter().Documents(next)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = docs.Insert(context.Background(), &model.Document{})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), next.maxSeen.Load())
}

func TestSingleWriter_PassesThroughErrors(t *testing.T) {
	ctx := context.Background()
	mDocs := new(mocks.MockDocumentRepository)
	mTrips := new(mocks.MockTripRepository)
	w := repository.NewSingleWriter()

	mDocs.On("Update", ctx, mock.Anything).Return(errors.New("commit failed"))
	mTrips.On("Delete", ctx, "trip-1").Return(repository.ErrNotFound)

	assert.EqualError(t, w.Documents(mDocs).Update(ctx, &model.Document{ID: "d"}), "commit failed")
	assert.ErrorIs(t, w.Trips(mTrips).Delete(ctx, "trip-1"), repository.ErrNotFound)

	mDocs.AssertExpectations(t)
	mTrips.AssertExpectations(t)
}

func TestDocumentCache_FetchByID(t *testing.T) {
	ctx := context.Background()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)

		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", Title: "Visa"}, nil).Once()

		first, err := cache.FetchByID(ctx, "doc-1")
		require.NoError(t, err)
		first.Title = "mutated by caller"

		second, err := cache.FetchByID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Equal(t, "Visa", second.Title)
		mRepo.AssertExpectations(t)
	})

	t.Run("key does not alias the caller's buffer", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)

		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", Title: "Visa"}, nil).Once()

		buf := []byte("doc-1")
		_, err := cache.FetchByID(ctx, unsafe.String(&buf[0], len(buf)))
		require.NoError(t, err)
		copy(buf, "doc-9")

		d, err := cache.FetchByID(ctx, "doc-1")
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, "Visa", d.Title)
		mRepo.AssertExpectations(t)
	})

	t.Run("absent documents are not cached", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)

		mRepo.On("FetchByID", ctx, "ghost").Return(nil, nil).Twice()

		for i := 0; i < 2; i++ {
			d, err := cache.FetchByID(ctx, "ghost")
			assert.NoError(t, err)
			assert.Nil(t, d)
		}
		mRepo.AssertExpectations(t)
	})

	t.Run("update invalidates", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)

		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil).Twice()
		mRepo.On("Update", ctx, mock.Anything).Return(nil).Once()

		_, _ = cache.FetchByID(ctx, "doc-1")
		require.NoError(t, cache.Update(ctx, &model.Document{ID: "doc-1"}))
		_, _ = cache.FetchByID(ctx, "doc-1")
		mRepo.AssertExpectations(t)
	})

	t.Run("delete many invalidates", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)
		docs := []model.Document{{ID: "doc-1"}}

		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil).Once()
		mRepo.On("DeleteMany", ctx, docs).Return(nil).Once()
		mRepo.On("FetchByID", ctx, "doc-1").Return(nil, nil).Once()

		_, _ = cache.FetchByID(ctx, "doc-1")
		require.NoError(t, cache.DeleteMany(ctx, docs))
		d, err := cache.FetchByID(ctx, "doc-1")
		assert.NoError(t, err)
		assert.Nil(t, d)
		mRepo.AssertExpectations(t)
	})

	t.Run("trip delete purges", func(t *testing.T) {
		mRepo := new(mocks.MockDocumentRepository)
		mTrips := new(mocks.MockTripRepository)
		cache := repository.NewDocumentCache(mRepo, 8, time.Minute)
		trips := cache.Trips(mTrips)

		tripID := "trip-1"
		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1", TripID: &tripID}, nil).Once()
		mTrips.On("Delete", ctx, "trip-1").Return(nil).Once()
		mRepo.On("FetchByID", ctx, "doc-1").Return(&model.Document{ID: "doc-1"}, nil).Once()

		_, _ = cache.FetchByID(ctx, "doc-1")
		require.NoError(t, trips.Delete(ctx, "trip-1"))
		d, err := cache.FetchByID(ctx, "doc-1")
		require.NoError(t, err)
		assert.Nil(t, d.TripID)
		mRepo.AssertExpectations(t)
		mTrips.AssertExpectations(t)
	})
}
