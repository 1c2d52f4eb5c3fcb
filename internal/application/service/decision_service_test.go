package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

func pendingTrip(t *testing.T, f *fixture, owner *entity.User) *entity.Trip {
	t.Helper()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, owner, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.SubmitTripForReview(ctx, owner, trip.ID)
	require.NoError(t, err)
	return trip
}

func TestDecideTrip(t *testing.T) {
	tests := []struct {
		decision string
		reason   string
		final    string
	}{
		{entity.DecisionApproved, "", entity.StatusApproved},
		{entity.DecisionApprovedException, "conference rates, pre-agreed", entity.StatusApprovedException},
		{entity.DecisionDenied, "", entity.StatusDenied},
	}

	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			f, employee, reviewer := seedFixture()
			trip := pendingTrip(t, f, employee)

			result, err := f.decisions.DecideTrip(context.Background(), reviewer, trip.ID, DecideRequest{
				Decision: tt.decision,
				Reason:   tt.reason,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.final, result.Trip.Status)
			assert.Equal(t, tt.decision, result.Approval.Decision)
			assert.Equal(t, reviewer.ID, result.Approval.ReviewerID)

			// Both effects landed: trail appended and status flipped.
			assert.Equal(t, tt.final, f.store.trips[trip.ID].Status)
			require.Len(t, f.store.approvals[trip.ID], 1)
		})
	}
}

func TestDecideTrip_ExceptionRequiresReason(t *testing.T) {
	f, employee, reviewer := seedFixture()
	trip := pendingTrip(t, f, employee)
	ctx := context.Background()

	for _, reason := range []string{"", "   ", "\t"} {
		_, err := f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{
			Decision: entity.DecisionApprovedException,
			Reason:   reason,
		})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	}

	// Nothing was recorded by the failed attempts.
	assert.Empty(t, f.store.approvals[trip.ID])
	assert.Equal(t, entity.StatusPendingReview, f.store.trips[trip.ID].Status)

	_, err := f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{
		Decision: entity.DecisionApprovedException,
		Reason:   "travel dates fixed by the client",
	})
	assert.NoError(t, err)
}

func TestDecideTrip_Guards(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()

	trip := pendingTrip(t, f, employee)

	_, err := f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{Decision: "escalate"})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.decisions.DecideTrip(ctx, employee, trip.ID, DecideRequest{Decision: entity.DecisionApproved})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.decisions.DecideTrip(ctx, reviewer, 777, DecideRequest{Decision: entity.DecisionApproved})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	// A draft trip is not decidable.
	draft, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.decisions.DecideTrip(ctx, reviewer, draft.ID, DecideRequest{Decision: entity.DecisionApproved})
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

// Terminal states admit no further decision: re-deciding is rejected and
// the trail keeps only the original record.
func TestDecideTrip_TerminalIsFinal(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()
	trip := pendingTrip(t, f, employee)

	_, err := f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{Decision: entity.DecisionDenied})
	require.NoError(t, err)

	_, err = f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{Decision: entity.DecisionApproved})
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))

	assert.Equal(t, entity.StatusDenied, f.store.trips[trip.ID].Status)
	assert.Len(t, f.store.approvals[trip.ID], 1)
}

// A decision racing the guard check must fail at commit time.
func TestDecideTrip_RechecksStatusAtCommit(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()
	trip := pendingTrip(t, f, employee)

	calls := 0
	f.tripRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Trip, error) {
		calls++
		stored := f.store.trips[id]
		if calls > 1 {
			moved := *stored
			moved.Status = entity.StatusDenied
			return &moved, nil
		}
		return stored, nil
	}

	_, err := f.decisions.DecideTrip(ctx, reviewer, trip.ID, DecideRequest{Decision: entity.DecisionApproved})
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	assert.Empty(t, f.store.approvals[trip.ID])
}
