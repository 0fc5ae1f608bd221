package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"
)

// TripService manages the trips documents hang off.
type TripService interface {
	CreateTrip(ctx context.Context, name string, start, end *time.Time, notes *string) (*model.Trip, error)
	GetTrip(ctx context.Context, id string) (*model.Trip, error)
	// DeleteTrip removes the trip. Its documents stay, detached.
	DeleteTrip(ctx context.Context, id string) error
}

type tripService struct {
	repo   repository.TripRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewTripService(repo repository.TripRepository, logger *slog.Logger) TripService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &tripService{
		repo:   repo,
		logger: logger.With("component", "trip_service"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *tripService) CreateTrip(ctx context.Context, name string, start, end *time.Time, notes *string) (*model.Trip, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTripNameRequired
	}
	trip := &model.Trip{
		ID:        uuid.New().String(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Notes:     normalizeNotes(notes),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	s.logger.Info("trip created", "event", "trip_create", "trip_id", trip.ID)
	return trip, nil
}

func (s *tripService) GetTrip(ctx context.Context, id string) (*model.Trip, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	trip, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotFound
	}
	return trip, nil
}

func (s *tripService) DeleteTrip(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTripNotFound
		}
		return fmt.Errorf("delete trip: %w", err)
	}
	s.logger.Info("trip deleted", "event", "trip_delete", "trip_id", id)
	return nil
}
