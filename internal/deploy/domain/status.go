package domain

// State is a deployment lifecycle state reported to the tracking system.
type State string

const (
	StatePending  State = "pending"
	StateSuccess  State = "success"
	StateFailure  State = "failure"
	StateInactive State = "inactive"
)

// FinalState maps a completed task to its terminal lifecycle state. A
// removed release is reported inactive rather than successful.
func FinalState(task Task) State {
	if task == TaskRemove {
		return StateInactive
	}
	return StateSuccess
}
