package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerSubmit           Trigger = "SUBMIT"
	TriggerApprove          Trigger = "APPROVE"
	TriggerApproveException Trigger = "APPROVE_EXCEPTION"
	TriggerDeny             Trigger = "DENY"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
