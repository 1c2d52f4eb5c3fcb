// Package access holds the guard rules that gate every protected action.
// Each guard is a pure predicate over the acting identity and the minimal
// state of the target entity; identical inputs always produce identical
// outcomes.
package access

import (
	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

// CanViewTrip allows the owner and any reviewer to read a trip.
func CanViewTrip(actor *entity.User, trip *entity.Trip) error {
	if trip.OwnerID == actor.ID || actor.IsReviewer() {
		return nil
	}
	return apperr.Forbidden("user %d may not view trip %d", actor.ID, trip.ID)
}

// CanModifyTrip allows the owner to change a trip while it is in draft.
// Ownership is checked before status so the error is specific.
func CanModifyTrip(actor *entity.User, trip *entity.Trip) error {
	if trip.OwnerID != actor.ID {
		return apperr.Forbidden("only the trip owner may modify trip %d", trip.ID)
	}
	if trip.Status != entity.StatusDraft {
		return apperr.InvalidState("trip %d is %s", trip.ID, trip.Status).
			WithHint("only draft trips can be modified")
	}
	return nil
}

// CanSubmitTrip allows the owner to submit a draft trip for review.
func CanSubmitTrip(actor *entity.User, trip *entity.Trip) error {
	if trip.OwnerID != actor.ID {
		return apperr.Forbidden("only the trip owner may submit trip %d", trip.ID)
	}
	if trip.Status != entity.StatusDraft {
		return apperr.InvalidState("trip %d is %s", trip.ID, trip.Status).
			WithHint("only draft trips can be submitted")
	}
	return nil
}

// CanDecideTrip allows a reviewer to decide a trip that is pending review.
func CanDecideTrip(actor *entity.User, trip *entity.Trip) error {
	if !actor.IsReviewer() {
		return apperr.Forbidden("role %s may not review trips", actor.Role)
	}
	if trip.Status != entity.StatusPendingReview {
		return apperr.InvalidState("trip %d is %s", trip.ID, trip.Status).
			WithHint("only trips pending review can be decided")
	}
	return nil
}

// CanViewAnalytics allows reviewers to read the analytics rollups.
func CanViewAnalytics(actor *entity.User) error {
	if !actor.IsReviewer() {
		return apperr.Forbidden("role %s may not view analytics", actor.Role)
	}
	return nil
}
