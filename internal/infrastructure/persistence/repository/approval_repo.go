package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a decision record
func (r *ApprovalRepository) Create(ctx context.Context, approval *entity.Approval) error {
	query := `
		INSERT INTO approvals (
			trip_id, reviewer_id, decision, reason
		) VALUES (?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		approval.TripID,
		approval.ReviewerID,
		approval.Decision,
		approval.Reason,
	)
	if err != nil {
		r.logger.Error("Failed to create approval", zap.Int64("trip_id", approval.TripID), zap.Error(err))
		return fmt.Errorf("failed to create approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	approval.ID = id
	return nil
}

// GetByTripID retrieves a trip's decision records in insertion order
func (r *ApprovalRepository) GetByTripID(ctx context.Context, tripID int64) ([]*entity.Approval, error) {
	query := `
		SELECT id, trip_id, reviewer_id, decision, reason, created_at
		FROM approvals
		WHERE trip_id = ?
		ORDER BY id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to get approvals", zap.Int64("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		var a entity.Approval
		err := rows.Scan(
			&a.ID,
			&a.TripID,
			&a.ReviewerID,
			&a.Decision,
			&a.Reason,
			&a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, &a)
	}

	return approvals, rows.Err()
}

var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
