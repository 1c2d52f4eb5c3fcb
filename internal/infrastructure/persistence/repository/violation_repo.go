package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// ViolationRepository implements port.ViolationRepository
type ViolationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewViolationRepository creates a new violation repository
func NewViolationRepository(db *sql.DB, logger *zap.Logger) port.ViolationRepository {
	return &ViolationRepository{
		db:     db,
		logger: logger,
	}
}

const violationColumns = `id, trip_id, policy_id, code, severity, message, computed_cents, limit_cents, created_at`

// InsertAll inserts the given violations. Callers run it inside the
// submission transaction together with DeleteByTripID.
func (r *ViolationRepository) InsertAll(ctx context.Context, violations []entity.Violation) error {
	if len(violations) == 0 {
		return nil
	}

	query := `
		INSERT INTO violations (
			trip_id, policy_id, code, severity, message, computed_cents, limit_cents
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	exec := getExecutor(ctx, r.db)
	for i := range violations {
		v := &violations[i]
		result, err := exec.ExecContext(ctx, query,
			v.TripID,
			v.PolicyID,
			v.Code,
			v.Severity,
			v.Message,
			nullInt64(v.ComputedCents),
			nullInt64(v.LimitCents),
		)
		if err != nil {
			r.logger.Error("Failed to insert violation", zap.Int64("trip_id", v.TripID), zap.String("code", v.Code), zap.Error(err))
			return fmt.Errorf("failed to insert violation: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		v.ID = id
	}

	return nil
}

// GetByTripID retrieves a trip's violations in insertion order
func (r *ViolationRepository) GetByTripID(ctx context.Context, tripID int64) ([]*entity.Violation, error) {
	query := `SELECT ` + violationColumns + ` FROM violations WHERE trip_id = ? ORDER BY id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to get violations", zap.Int64("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get violations: %w", err)
	}
	defer rows.Close()

	return scanViolations(rows)
}

// DeleteByTripID removes all violations recorded for a trip
func (r *ViolationRepository) DeleteByTripID(ctx context.Context, tripID int64) error {
	query := `DELETE FROM violations WHERE trip_id = ?`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to delete violations", zap.Int64("trip_id", tripID), zap.Error(err))
		return fmt.Errorf("failed to delete violations: %w", err)
	}

	return nil
}

// ListCreatedBetween retrieves violations recorded in the closed [from, to]
// date range
func (r *ViolationRepository) ListCreatedBetween(ctx context.Context, from, to string) ([]*entity.Violation, error) {
	query := `SELECT ` + violationColumns + ` FROM violations
		WHERE date(created_at) >= ? AND date(created_at) <= ?
		ORDER BY id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to list violations", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	defer rows.Close()

	return scanViolations(rows)
}

func scanViolations(rows *sql.Rows) ([]*entity.Violation, error) {
	var violations []*entity.Violation
	for rows.Next() {
		var v entity.Violation
		var computed, limit sql.NullInt64
		err := rows.Scan(
			&v.ID,
			&v.TripID,
			&v.PolicyID,
			&v.Code,
			&v.Severity,
			&v.Message,
			&computed,
			&limit,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan violation: %w", err)
		}
		if computed.Valid {
			v.ComputedCents = &computed.Int64
		}
		if limit.Valid {
			v.LimitCents = &limit.Int64
		}
		violations = append(violations, &v)
	}

	return violations, rows.Err()
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

var _ port.ViolationRepository = (*ViolationRepository)(nil)
