package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// TripRepository implements port.TripRepository
type TripRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db *sql.DB, logger *zap.Logger) port.TripRepository {
	return &TripRepository{
		db:     db,
		logger: logger,
	}
}

const tripColumns = `id, owner_id, department, destination, start_date, end_date, purpose, status, created_at`

// Create inserts a new trip
func (r *TripRepository) Create(ctx context.Context, trip *entity.Trip) error {
	query := `
		INSERT INTO trips (
			owner_id, department, destination, start_date, end_date, purpose, status
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		trip.OwnerID,
		trip.Department,
		trip.Destination,
		trip.StartDate,
		trip.EndDate,
		trip.Purpose,
		trip.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create trip", zap.Error(err))
		return fmt.Errorf("failed to create trip: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	trip.ID = id
	return nil
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(ctx context.Context, id int64) (*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = ?`

	trip, err := scanTrip(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get trip by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	return trip, nil
}

// GetByIDs retrieves trips by ID, keyed by ID. Missing IDs are absent
// from the result rather than an error.
func (r *TripRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Trip, error) {
	result := make(map[int64]*entity.Trip, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get trips by IDs", zap.Error(err))
		return nil, fmt.Errorf("failed to get trips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		result[trip.ID] = trip
	}

	return result, rows.Err()
}

// UpdateStatus updates the status of a trip
func (r *TripRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE trips SET status = ? WHERE id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update trip status", zap.Int64("id", id), zap.String("status", status), zap.Error(err))
		return fmt.Errorf("failed to update trip status: %w", err)
	}

	return nil
}

// ListByOwner retrieves an owner's trips in creation order
func (r *TripRepository) ListByOwner(ctx context.Context, ownerID int64, status string) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return r.list(ctx, query, args...)
}

// ListByStatus retrieves trips in a status in creation order, optionally
// narrowed to one department
func (r *TripRepository) ListByStatus(ctx context.Context, status, department string) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE status = ?`
	args := []interface{}{status}
	if department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return r.list(ctx, query, args...)
}

// ListByStartDateRange retrieves trips whose start date falls in the
// closed [from, to] range
func (r *TripRepository) ListByStartDateRange(ctx context.Context, from, to string) ([]*entity.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE start_date >= ? AND start_date <= ?
		ORDER BY created_at ASC, id ASC`

	return r.list(ctx, query, from, to)
}

func (r *TripRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Trip, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list trips", zap.Error(err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*entity.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrip(row rowScanner) (*entity.Trip, error) {
	var trip entity.Trip
	err := row.Scan(
		&trip.ID,
		&trip.OwnerID,
		&trip.Department,
		&trip.Destination,
		&trip.StartDate,
		&trip.EndDate,
		&trip.Purpose,
		&trip.Status,
		&trip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

var _ port.TripRepository = (*TripRepository)(nil)
