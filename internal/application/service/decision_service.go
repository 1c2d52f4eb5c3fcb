package service

import (
	"context"
	"strings"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/access"
	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
	"github.com/tripdesk/tripdesk/internal/domain/workflow"
)

// DecideRequest carries the validated arguments for DecideTrip.
type DecideRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

// DecisionResult is the outcome of a recorded decision.
type DecisionResult struct {
	Trip     *entity.Trip     `json:"trip"`
	Approval *entity.Approval `json:"approval"`
}

// DecisionService records reviewer decisions. Appending the approval and
// flipping the trip status are one unit of work: a partial outcome is a
// consistency violation.
type DecisionService interface {
	DecideTrip(ctx context.Context, actor *entity.User, tripID int64, req DecideRequest) (*DecisionResult, error)
}

type decisionServiceImpl struct {
	tripRepo     port.TripRepository
	approvalRepo port.ApprovalRepository
	txManager    port.TransactionManager
	logger       Logger
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	tripRepo port.TripRepository,
	approvalRepo port.ApprovalRepository,
	txManager port.TransactionManager,
	logger Logger,
) DecisionService {
	return &decisionServiceImpl{
		tripRepo:     tripRepo,
		approvalRepo: approvalRepo,
		txManager:    txManager,
		logger:       logger,
	}
}

// DecideTrip validates the exception-reason invariant, appends the
// approval record, and drives the terminal transition.
func (s *decisionServiceImpl) DecideTrip(ctx context.Context, actor *entity.User, tripID int64, req DecideRequest) (*DecisionResult, error) {
	trigger, err := workflow.DecisionTrigger(req.Decision)
	if err != nil {
		return nil, apperr.Validation("unknown decision %q", req.Decision).
			WithHint("decision must be approved, approved_exception, or denied")
	}

	// The reason requirement is a business invariant, not only an input
	// shape concern, so it is enforced here as well.
	if req.Decision == entity.DecisionApprovedException && strings.TrimSpace(req.Reason) == "" {
		return nil, apperr.Validation("approving with exception requires a reason").
			WithHint("state why the blocker violations are being overridden")
	}

	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, apperr.Internal(err, "load trip %d", tripID)
	}
	if trip == nil {
		return nil, apperr.NotFound("trip", tripID)
	}
	if err := access.CanDecideTrip(actor, trip); err != nil {
		return nil, err
	}

	approval := &entity.Approval{
		TripID:     tripID,
		ReviewerID: actor.ID,
		Decision:   req.Decision,
		Reason:     strings.TrimSpace(req.Reason),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.tripRepo.GetByID(txCtx, tripID)
		if err != nil {
			return apperr.Internal(err, "load trip %d", tripID)
		}
		if current == nil {
			return apperr.NotFound("trip", tripID)
		}
		if err := access.CanDecideTrip(actor, current); err != nil {
			return err
		}

		machine, err := workflow.NewTripMachine(workflow.State(current.Status))
		if err != nil {
			return apperr.Internal(err, "build lifecycle machine")
		}
		if err := machine.Fire(trigger); err != nil {
			return apperr.InvalidState("trip %d cannot be decided from %s", tripID, current.Status)
		}

		if err := s.approvalRepo.Create(txCtx, approval); err != nil {
			return apperr.Internal(err, "record approval")
		}
		if err := s.tripRepo.UpdateStatus(txCtx, tripID, machine.State().String()); err != nil {
			return apperr.Internal(err, "update trip status")
		}
		trip = current
		trip.Status = machine.State().String()
		return nil
	})
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			s.logger.Error("Failed to decide trip", "error", err, "trip_id", tripID)
		}
		return nil, err
	}

	s.logger.Info("Trip decided",
		"trip_id", tripID,
		"decision", req.Decision,
		"reviewer_id", actor.ID)
	return &DecisionResult{Trip: trip, Approval: approval}, nil
}
