package workflow

// State represents a trip status in the approval lifecycle
type State string

const (
	StateDraft             State = "draft"
	StatePendingReview     State = "pending_review"
	StateApproved          State = "approved"
	StateApprovedException State = "approved_exception"
	StateDenied            State = "denied"
)

var validStates = map[State]bool{
	StateDraft:             true,
	StatePendingReview:     true,
	StateApproved:          true,
	StateApprovedException: true,
	StateDenied:            true,
}

var terminalStates = map[State]bool{
	StateApproved:          true,
	StateApprovedException: true,
	StateDenied:            true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
