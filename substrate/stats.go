package substrate

import "sync/atomic"

// Outcome is how a spawned job ended when it did not fail.
type Outcome int

const (
	// Delivered means the job produced a value and handed it over.
	Delivered Outcome = iota
	// Stale means the job was superseded before it started its work.
	Stale
	// Dropped means the job produced a value nobody was waiting for any more.
	Dropped
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Stale:
		return "stale"
	case Dropped:
		return "dropped"
	default:
		return "unknown"
	}
}

type stats struct {
	spawned   atomic.Uint64
	delivered atomic.Uint64
	stale     atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
	panicked  atomic.Uint64
}

// Snapshot is a point-in-time copy of the runtime counters.
type Snapshot struct {
	Spawned   uint64 `json:"spawned"`
	Delivered uint64 `json:"delivered"`
	Stale     uint64 `json:"stale"`
	Dropped   uint64 `json:"dropped"`
	Failed    uint64 `json:"failed"`
	Panicked  uint64 `json:"panicked"`
	InFlight  uint64 `json:"in_flight"`

	BlockingActive int `json:"blocking_active"`
	BlockingSize   int `json:"blocking_size"`
}

func (s *stats) record(o Outcome) {
	switch o {
	case Delivered:
		s.delivered.Add(1)
	case Stale:
		s.stale.Add(1)
	case Dropped:
		s.dropped.Add(1)
	}
}

func (s *stats) snapshot() Snapshot {
	snap := Snapshot{
		Spawned:   s.spawned.Load(),
		Delivered: s.delivered.Load(),
		Stale:     s.stale.Load(),
		Dropped:   s.dropped.Load(),
		Failed:    s.failed.Load(),
		Panicked:  s.panicked.Load(),
	}
	// counters are read one by one, so guard against a job finishing mid-snapshot
	finished := snap.Delivered + snap.Stale + snap.Dropped + snap.Failed + snap.Panicked
	if snap.Spawned > finished {
		snap.InFlight = snap.Spawned - finished
	}
	return snap
}
