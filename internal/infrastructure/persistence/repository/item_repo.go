package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// ItemRepository implements port.ItemRepository
type ItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewItemRepository creates a new trip item repository
func NewItemRepository(db *sql.DB, logger *zap.Logger) port.ItemRepository {
	return &ItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new trip item. Metadata is stored as a JSON blob so
// item types can carry different fields without schema churn.
func (r *ItemRepository) Create(ctx context.Context, item *entity.TripItem) error {
	metadata, err := json.Marshal(item.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal item metadata: %w", err)
	}

	query := `
		INSERT INTO trip_items (
			trip_id, item_type, description, amount_cents, metadata
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		item.TripID,
		item.ItemType,
		item.Description,
		item.AmountCents,
		string(metadata),
	)
	if err != nil {
		r.logger.Error("Failed to create trip item", zap.Int64("trip_id", item.TripID), zap.Error(err))
		return fmt.Errorf("failed to create trip item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	return nil
}

// GetByTripID retrieves a trip's items in creation order
func (r *ItemRepository) GetByTripID(ctx context.Context, tripID int64) ([]*entity.TripItem, error) {
	query := `
		SELECT id, trip_id, item_type, description, amount_cents, metadata, created_at
		FROM trip_items
		WHERE trip_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tripID)
	if err != nil {
		r.logger.Error("Failed to get trip items", zap.Int64("trip_id", tripID), zap.Error(err))
		return nil, fmt.Errorf("failed to get trip items: %w", err)
	}
	defer rows.Close()

	var items []*entity.TripItem
	for rows.Next() {
		var item entity.TripItem
		var metadata string
		err := rows.Scan(
			&item.ID,
			&item.TripID,
			&item.ItemType,
			&item.Description,
			&item.AmountCents,
			&metadata,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip item: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &item.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item metadata: %w", err)
			}
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

var _ port.ItemRepository = (*ItemRepository)(nil)
