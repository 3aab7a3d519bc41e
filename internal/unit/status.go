package unit

// Status represents the execution state of a unit within one run.
type Status int32

const (
	// Pending indicates the unit has not been attempted yet.
	Pending Status = iota
	// InProgress indicates the deployment action is running.
	InProgress
	// Deployed indicates the unit has a recorded result. Terminal.
	Deployed
	// Failed indicates the deployment action failed. Terminal.
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Deployed:
		return "deployed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == Deployed || s == Failed
}

// CanTransition reports whether moving from s to next follows
// Pending -> InProgress -> {Deployed | Failed}.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case Pending:
		return next == InProgress
	case InProgress:
		return next == Deployed || next == Failed
	default:
		return false
	}
}
