package service

import (
	"context"
	"time"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/access"
	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
	"github.com/tripdesk/tripdesk/internal/domain/policy"
	"github.com/tripdesk/tripdesk/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateTripRequest carries the validated arguments for CreateTrip.
type CreateTripRequest struct {
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Purpose     string `json:"purpose"`
}

// AddItemRequest carries the validated arguments for AddTripItem.
type AddItemRequest struct {
	ItemType    string              `json:"item_type"`
	Description string              `json:"description"`
	AmountCents int64               `json:"amount_cents"`
	Metadata    entity.ItemMetadata `json:"metadata"`
}

// SubmitResult is the outcome of a successful submission.
type SubmitResult struct {
	Trip        *entity.Trip        `json:"trip"`
	Violations  []*entity.Violation `json:"violations"`
	TotalCents  int64               `json:"total_cents"`
	HasBlockers bool                `json:"has_blockers"`
}

// PendingTrip is one row of the reviewer queue.
type PendingTrip struct {
	Trip        *entity.Trip `json:"trip"`
	TotalCents  int64        `json:"total_cents"`
	HasBlockers bool         `json:"has_blockers"`
	Blockers    int          `json:"blockers"`
	Warnings    int          `json:"warnings"`
}

// ReviewPacket aggregates a trip's full state for an approval decision.
type ReviewPacket struct {
	Trip       *entity.Trip        `json:"trip"`
	Owner      *entity.User        `json:"owner"`
	Items      []*entity.TripItem  `json:"items"`
	Violations []*entity.Violation `json:"violations"`
	Approvals  []*entity.Approval  `json:"approvals"`
	Policy     *entity.Policy      `json:"policy"`
	TotalCents int64               `json:"total_cents"`
}

// TripService drives the trip lifecycle. Every method takes the acting
// identity explicitly; it is resolved by the caller and never read from
// the request payload.
type TripService interface {
	CreateTrip(ctx context.Context, actor *entity.User, req CreateTripRequest) (*entity.Trip, error)
	AddTripItem(ctx context.Context, actor *entity.User, tripID int64, req AddItemRequest) (*entity.TripItem, error)
	SubmitTripForReview(ctx context.Context, actor *entity.User, tripID int64) (*SubmitResult, error)
	GetMyTrips(ctx context.Context, actor *entity.User, status string) ([]*entity.Trip, error)
	ListPendingTrips(ctx context.Context, actor *entity.User, department string, onlyBlockers bool) ([]*PendingTrip, error)
	GetTripReviewPacket(ctx context.Context, actor *entity.User, tripID int64) (*ReviewPacket, error)
}

type tripServiceImpl struct {
	tripRepo      port.TripRepository
	itemRepo      port.ItemRepository
	violationRepo port.ViolationRepository
	approvalRepo  port.ApprovalRepository
	policyRepo    port.PolicyRepository
	userRepo      port.UserRepository
	txManager     port.TransactionManager
	logger        Logger
}

// NewTripService creates a new TripService
func NewTripService(
	tripRepo port.TripRepository,
	itemRepo port.ItemRepository,
	violationRepo port.ViolationRepository,
	approvalRepo port.ApprovalRepository,
	policyRepo port.PolicyRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	logger Logger,
) TripService {
	return &tripServiceImpl{
		tripRepo:      tripRepo,
		itemRepo:      itemRepo,
		violationRepo: violationRepo,
		approvalRepo:  approvalRepo,
		policyRepo:    policyRepo,
		userRepo:      userRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

var validItemTypes = map[string]bool{
	entity.ItemTypeFlight:    true,
	entity.ItemTypeHotel:     true,
	entity.ItemTypeMeal:      true,
	entity.ItemTypeTransport: true,
}

// CreateTrip opens a new trip in draft, owned by the actor. The owner's
// department is denormalized onto the trip at creation time.
func (s *tripServiceImpl) CreateTrip(ctx context.Context, actor *entity.User, req CreateTripRequest) (*entity.Trip, error) {
	if req.Destination == "" {
		return nil, apperr.Validation("destination is required")
	}
	if req.Purpose == "" {
		return nil, apperr.Validation("purpose is required")
	}
	start, err := time.Parse(entity.DateLayout, req.StartDate)
	if err != nil {
		return nil, apperr.Validation("start_date %q is not a valid date", req.StartDate).
			WithHint("dates use the YYYY-MM-DD form")
	}
	end, err := time.Parse(entity.DateLayout, req.EndDate)
	if err != nil {
		return nil, apperr.Validation("end_date %q is not a valid date", req.EndDate).
			WithHint("dates use the YYYY-MM-DD form")
	}
	if end.Before(start) {
		return nil, apperr.Validation("end_date %s precedes start_date %s", req.EndDate, req.StartDate)
	}

	trip := &entity.Trip{
		OwnerID:     actor.ID,
		Department:  actor.Department,
		Destination: req.Destination,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Purpose:     req.Purpose,
		Status:      entity.StatusDraft,
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		s.logger.Error("Failed to create trip", "error", err, "owner_id", actor.ID)
		return nil, apperr.Internal(err, "create trip")
	}

	s.logger.Info("Trip created", "trip_id", trip.ID, "owner_id", actor.ID, "destination", trip.Destination)
	return trip, nil
}

// AddTripItem appends an expense line to a draft trip. The status check is
// repeated inside the transaction so an item can never land on a trip that
// a concurrent submission already moved out of draft.
func (s *tripServiceImpl) AddTripItem(ctx context.Context, actor *entity.User, tripID int64, req AddItemRequest) (*entity.TripItem, error) {
	if !validItemTypes[req.ItemType] {
		return nil, apperr.Validation("unknown item type %q", req.ItemType).
			WithHint("item type must be flight, hotel, meal, or transport")
	}
	if req.Description == "" {
		return nil, apperr.Validation("description is required")
	}
	if req.AmountCents < 0 {
		return nil, apperr.Validation("amount must not be negative")
	}

	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := access.CanModifyTrip(actor, trip); err != nil {
		return nil, err
	}

	item := &entity.TripItem{
		TripID:      tripID,
		ItemType:    req.ItemType,
		Description: req.Description,
		AmountCents: req.AmountCents,
		Metadata:    req.Metadata,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.getTrip(txCtx, tripID)
		if err != nil {
			return err
		}
		if err := access.CanModifyTrip(actor, current); err != nil {
			return err
		}
		return s.itemRepo.Create(txCtx, item)
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			s.logger.Error("Failed to add trip item", "error", err, "trip_id", tripID)
			return nil, apperr.Internal(err, "add trip item")
		}
		return nil, err
	}

	s.logger.Info("Trip item added", "trip_id", tripID, "item_id", item.ID, "item_type", item.ItemType)
	return item, nil
}

// SubmitTripForReview moves a draft trip to pending_review, recomputing
// its violation set in the same transaction. Blockers never stop the
// submission; they only shape the later decision.
func (s *tripServiceImpl) SubmitTripForReview(ctx context.Context, actor *entity.User, tripID int64) (*SubmitResult, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := access.CanSubmitTrip(actor, trip); err != nil {
		return nil, err
	}

	var result *SubmitResult
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Status can have moved since the entry check.
		current, err := s.getTrip(txCtx, tripID)
		if err != nil {
			return err
		}
		if err := access.CanSubmitTrip(actor, current); err != nil {
			return err
		}

		pol, err := s.activePolicy(txCtx)
		if err != nil {
			return err
		}
		items, err := s.itemRepo.GetByTripID(txCtx, tripID)
		if err != nil {
			return apperr.Internal(err, "load trip items")
		}

		eval := policy.Evaluate(pol, items)

		// Replace, never patch: the stored set must always reflect the
		// current items and current policy.
		if err := s.violationRepo.DeleteByTripID(txCtx, tripID); err != nil {
			return apperr.Internal(err, "clear violations")
		}
		violations := make([]entity.Violation, len(eval.Violations))
		for i, v := range eval.Violations {
			v.TripID = tripID
			violations[i] = v
		}
		if err := s.violationRepo.InsertAll(txCtx, violations); err != nil {
			return apperr.Internal(err, "store violations")
		}

		machine, err := workflow.NewTripMachine(workflow.State(current.Status))
		if err != nil {
			return apperr.Internal(err, "build lifecycle machine")
		}
		if err := machine.Fire(workflow.TriggerSubmit); err != nil {
			return apperr.InvalidState("trip %d cannot be submitted from %s", tripID, current.Status)
		}
		if err := s.tripRepo.UpdateStatus(txCtx, tripID, machine.State().String()); err != nil {
			return apperr.Internal(err, "update trip status")
		}
		current.Status = machine.State().String()

		stored := make([]*entity.Violation, len(violations))
		for i := range violations {
			stored[i] = &violations[i]
		}
		result = &SubmitResult{
			Trip:        current,
			Violations:  stored,
			TotalCents:  eval.TotalCents,
			HasBlockers: eval.HasBlockers,
		}
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			s.logger.Error("Failed to submit trip", "error", err, "trip_id", tripID)
		}
		return nil, err
	}

	s.logger.Info("Trip submitted for review",
		"trip_id", tripID,
		"violations", len(result.Violations),
		"has_blockers", result.HasBlockers)
	return result, nil
}

// GetMyTrips lists the actor's own trips in creation order, optionally
// filtered by status.
func (s *tripServiceImpl) GetMyTrips(ctx context.Context, actor *entity.User, status string) ([]*entity.Trip, error) {
	if status != "" && !workflow.State(status).IsValid() {
		return nil, apperr.Validation("unknown status %q", status)
	}

	trips, err := s.tripRepo.ListByOwner(ctx, actor.ID, status)
	if err != nil {
		s.logger.Error("Failed to list trips", "error", err, "owner_id", actor.ID)
		return nil, apperr.Internal(err, "list trips")
	}
	return trips, nil
}

// ListPendingTrips returns the reviewer queue, optionally narrowed to a
// department or to trips with blocker violations.
func (s *tripServiceImpl) ListPendingTrips(ctx context.Context, actor *entity.User, department string, onlyBlockers bool) ([]*PendingTrip, error) {
	if !actor.IsReviewer() {
		return nil, apperr.Forbidden("role %s may not list pending trips", actor.Role)
	}

	trips, err := s.tripRepo.ListByStatus(ctx, entity.StatusPendingReview, department)
	if err != nil {
		s.logger.Error("Failed to list pending trips", "error", err)
		return nil, apperr.Internal(err, "list pending trips")
	}

	queue := make([]*PendingTrip, 0, len(trips))
	for _, trip := range trips {
		violations, err := s.violationRepo.GetByTripID(ctx, trip.ID)
		if err != nil {
			return nil, apperr.Internal(err, "load violations for trip %d", trip.ID)
		}
		items, err := s.itemRepo.GetByTripID(ctx, trip.ID)
		if err != nil {
			return nil, apperr.Internal(err, "load items for trip %d", trip.ID)
		}

		row := &PendingTrip{Trip: trip}
		for _, item := range items {
			row.TotalCents += item.AmountCents
		}
		for _, v := range violations {
			if v.IsBlocker() {
				row.Blockers++
			} else {
				row.Warnings++
			}
		}
		row.HasBlockers = row.Blockers > 0

		if onlyBlockers && !row.HasBlockers {
			continue
		}
		queue = append(queue, row)
	}

	return queue, nil
}

// GetTripReviewPacket aggregates a trip's full state: items, stored
// violations, the approval trail, and the active policy snapshot.
func (s *tripServiceImpl) GetTripReviewPacket(ctx context.Context, actor *entity.User, tripID int64) (*ReviewPacket, error) {
	trip, err := s.getTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewTrip(actor, trip); err != nil {
		return nil, err
	}

	owner, err := s.userRepo.GetByID(ctx, trip.OwnerID)
	if err != nil {
		return nil, apperr.Internal(err, "load trip owner")
	}
	items, err := s.itemRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, apperr.Internal(err, "load trip items")
	}
	violations, err := s.violationRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, apperr.Internal(err, "load violations")
	}
	approvals, err := s.approvalRepo.GetByTripID(ctx, tripID)
	if err != nil {
		return nil, apperr.Internal(err, "load approvals")
	}
	pol, err := s.activePolicy(ctx)
	if err != nil {
		return nil, err
	}

	packet := &ReviewPacket{
		Trip:       trip,
		Owner:      owner,
		Items:      items,
		Violations: violations,
		Approvals:  approvals,
		Policy:     pol,
	}
	for _, item := range items {
		packet.TotalCents += item.AmountCents
	}
	return packet, nil
}

// getTrip loads a trip, classifying the not-found case.
func (s *tripServiceImpl) getTrip(ctx context.Context, tripID int64) (*entity.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, apperr.Internal(err, "load trip %d", tripID)
	}
	if trip == nil {
		return nil, apperr.NotFound("trip", tripID)
	}
	return trip, nil
}

func (s *tripServiceImpl) activePolicy(ctx context.Context) (*entity.Policy, error) {
	pol, err := s.policyRepo.GetActive(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "load active policy")
	}
	if pol == nil {
		return nil, apperr.Internal(nil, "no active policy provisioned")
	}
	return pol, nil
}
