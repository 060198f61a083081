package fiber

// Stats is a point-in-time snapshot of system activity.
type Stats struct {
	Spawned     int64 // fibers spawned since the system started
	Running     int64 // fibers not yet Dead
	Steals      int64 // blocks taken from a peer's run queue
	Wakes       int64 // suspended fibers woken by a send
	DeadLetters int64 // events discarded with no live target or handler
	Workers     int   // scheduler count (fixed at creation)
}

// Stats returns a snapshot of the system counters. Counters are updated
// atomically; the snapshot is not a consistent cut but each field is
// accurate at the instant it is read.
func (s *System) Stats() Stats {
	return Stats{
		Spawned:     s.spawned.Load(),
		Running:     s.running.Load(),
		Steals:      s.steals.Load(),
		Wakes:       s.wakes.Load(),
		DeadLetters: s.deadLetters.Load(),
		Workers:     len(s.schedulers),
	}
}
