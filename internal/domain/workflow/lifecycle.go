package workflow

import "fmt"

// tripBuilder holds the shared transition table for the trip lifecycle:
//
//	draft -> pending_review -> {approved, approved_exception, denied}
//
// Terminal states are configured with no outgoing transitions, so any
// further trigger fails with ErrInvalidTransition.
var tripBuilder Builder

// newTripBuilder calls Configure through the Builder interface, so the
// compiler's initializer dependency analysis cannot see that it reads
// validStates; assigning in init() guarantees state.go's maps are ready.
func init() {
	tripBuilder = newTripBuilder()
}

func newTripBuilder() Builder {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSubmit, StatePendingReview)

	b.Configure(StatePendingReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerApproveException, StateApprovedException).
		Permit(TriggerDeny, StateDenied)

	return b
}

// NewTripMachine builds a lifecycle machine positioned at the given state.
func NewTripMachine(current State) (StateMachine, error) {
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, current)
	}
	return tripBuilder.Build(current), nil
}

// DecisionTrigger maps a reviewer decision value to its lifecycle trigger.
// The mapping is 1:1 with the terminal states.
func DecisionTrigger(decision string) (Trigger, error) {
	switch decision {
	case string(StateApproved):
		return TriggerApprove, nil
	case string(StateApprovedException):
		return TriggerApproveException, nil
	case string(StateDenied):
		return TriggerDeny, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDecision, decision)
	}
}
