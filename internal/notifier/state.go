package notifier

import "time"

type State int32

const (
	Idle State = iota
	RunningCycle
	Sleeping
	ErrorBackoff
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case RunningCycle:
		return "RUNNING_CYCLE"
	case Sleeping:
		return "SLEEPING"
	case ErrorBackoff:
		return "ERROR_BACKOFF"
	default:
		return "UNKNOWN"
	}
}

// Status is a snapshot of the scheduler.
type Status struct {
	State       State
	Runs        int
	Failures    int
	LastCycleID string
	LastRun     time.Time
	LastErr     error
	NextRun     time.Time
}
