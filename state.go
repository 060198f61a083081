package fiber

// LifeStatus is the scheduling state of a fiber's control block.
//
// State machine:
//
//	StatusSuspended → StatusScheduled   [wake: enqueue into a run queue]
//	StatusScheduled → StatusRunning     [a worker picks the block]
//	StatusRunning   → StatusSuspended   [voluntary yield with empty mailbox]
//	StatusRunning   → StatusScheduled   [reschedule without suspension]
//	StatusRunning   → StatusDead        [normal return or unhandled panic]
//
// StatusDead is terminal. All transitions happen under the control block's
// mutex; the suspend path re-checks the mailbox while holding it to close
// the lost-wakeup race against a concurrent sender.
type LifeStatus uint8

const (
	// StatusSuspended means the fiber is parked, waiting for an event.
	StatusSuspended LifeStatus = iota
	// StatusScheduled means the fiber sits on some scheduler's run queue.
	StatusScheduled
	// StatusRunning means a worker is currently executing the fiber.
	// At most one worker observes a given block in this state.
	StatusRunning
	// StatusDead means the fiber has terminated. Terminal.
	StatusDead
)

// String returns a human-readable representation of the status.
func (s LifeStatus) String() string {
	switch s {
	case StatusSuspended:
		return "Suspended"
	case StatusScheduled:
		return "Scheduled"
	case StatusRunning:
		return "Running"
	case StatusDead:
		return "Dead"
	default:
		return "Unknown"
	}
}
