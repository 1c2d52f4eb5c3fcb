package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// PolicyRepository implements port.PolicyRepository
type PolicyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sql.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// GetActive retrieves the most recently created policy. The active policy
// is never mutated in place; a new row supersedes the old one.
func (r *PolicyRepository) GetActive(ctx context.Context) (*entity.Policy, error) {
	query := `
		SELECT id, economy_only, hotel_nightly_cap_cents, meal_daily_cap_cents,
			preapproval_over_cents, created_at
		FROM policies
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var pol entity.Policy
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&pol.ID,
		&pol.EconomyOnly,
		&pol.HotelNightlyCapCents,
		&pol.MealDailyCapCents,
		&pol.PreapprovalOverCents,
		&pol.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get active policy", zap.Error(err))
		return nil, fmt.Errorf("failed to get active policy: %w", err)
	}

	return &pol, nil
}

var _ port.PolicyRepository = (*PolicyRepository)(nil)
