// Package port defines the narrow persistence contracts the core depends
// on. Any storage engine that provides per-record atomicity and a shared
// transaction scope can satisfy them.
package port

import (
	"context"

	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// UserRepository defines read operations for User. Users are provisioned
// out-of-band and never written by the core.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// PolicyRepository defines read operations for Policy.
type PolicyRepository interface {
	// GetActive returns the most recently created policy, or nil if none
	// has been provisioned.
	GetActive(ctx context.Context) (*entity.Policy, error)
}

// TripRepository defines persistence operations for Trip.
type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error
	GetByID(ctx context.Context, id int64) (*entity.Trip, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*entity.Trip, error)
	UpdateStatus(ctx context.Context, id int64, status string) error

	// ListByOwner returns the owner's trips in creation order. An empty
	// status means no status filter.
	ListByOwner(ctx context.Context, ownerID int64, status string) ([]*entity.Trip, error)

	// ListByStatus returns trips in the given status in creation order,
	// optionally narrowed to one department.
	ListByStatus(ctx context.Context, status, department string) ([]*entity.Trip, error)

	// ListByStartDateRange returns trips whose start date falls in the
	// closed [from, to] range of YYYY-MM-DD dates.
	ListByStartDateRange(ctx context.Context, from, to string) ([]*entity.Trip, error)
}

// ItemRepository defines persistence operations for TripItem.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.TripItem) error
	GetByTripID(ctx context.Context, tripID int64) ([]*entity.TripItem, error)
}

// ViolationRepository defines persistence operations for Violation. The
// stored set for a trip is only ever replaced wholesale.
type ViolationRepository interface {
	InsertAll(ctx context.Context, violations []entity.Violation) error
	GetByTripID(ctx context.Context, tripID int64) ([]*entity.Violation, error)
	DeleteByTripID(ctx context.Context, tripID int64) error

	// ListCreatedBetween returns violations whose creation date falls in
	// the closed [from, to] range of YYYY-MM-DD dates.
	ListCreatedBetween(ctx context.Context, from, to string) ([]*entity.Violation, error)
}

// ApprovalRepository defines persistence operations for the append-only
// approval trail.
type ApprovalRepository interface {
	Create(ctx context.Context, approval *entity.Approval) error
	GetByTripID(ctx context.Context, tripID int64) ([]*entity.Approval, error)
}

// TransactionManager scopes a function to one database transaction. The
// derived context carries the transaction; repositories called with it
// execute inside the same unit of work.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
