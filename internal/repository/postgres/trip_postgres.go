package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tripdocs/internal/model"
	"tripdocs/internal/repository"
)

// TripPostgres stores trips. Deleting a trip relies on the documents.trip_id
// foreign key (ON DELETE SET NULL) to detach its documents.
type TripPostgres struct {
	db *sql.DB
}

// NewTripPostgres creates a new TripPostgres repository.
func NewTripPostgres(db *sql.DB) *TripPostgres {
	return &TripPostgres{db: db}
}

var _ repository.TripRepository = (*TripPostgres)(nil)

func (r *TripPostgres) Create(ctx context.Context, trip *model.Trip) error {
	const q = `
		INSERT INTO trips (id, name, start_date, end_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		trip.ID,
		trip.Name,
		trip.StartDate,
		trip.EndDate,
		trip.Notes,
		trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (r *TripPostgres) FindByID(ctx context.Context, id string) (*model.Trip, error) {
	const q = `
		SELECT id, name, start_date, end_date, notes, created_at
		FROM trips
		WHERE id = $1
	`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID,
		&t.Name,
		&t.StartDate,
		&t.EndDate,
		&t.Notes,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch trip: %w", err)
	}
	return &t, nil
}

func (r *TripPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM trips WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
