package checking

// A predicate over one explored trace record. It returns true if the
// property holds for that trace.
type Predicate struct {
	Name  string
	Holds func(TraceRecord) bool
}

// Holds iff the trace did not end in a deadlock. Breaking this predicate is
// the checker's positive result, not a failure of the checker itself.
func DeadlockFree() Predicate {
	return Predicate{
		Name: "deadlock free",
		Holds: func(rec TraceRecord) bool {
			return rec.Outcome != OutcomeDeadlock
		},
	}
}

// Holds iff the target never violated a primitive's preconditions.
func NoUndefinedBehavior() Predicate {
	return Predicate{
		Name: "no undefined behavior",
		Holds: func(rec TraceRecord) bool {
			return rec.Outcome != OutcomeUndefinedBehavior
		},
	}
}

// Holds iff every runner that was still announcing operations when the
// trace ended got to execute at least once. A completed trace that leaves a
// runner starved points at a schedule in which it never makes progress,
// e.g. writers under a reader-preferred lock. A trace with no executed step
// always satisfies it.
func ForwardProgress() Predicate {
	return Predicate{
		Name: "forward progress",
		Holds: func(rec TraceRecord) bool {
			if len(rec.Trace) == 0 {
				return true
			}
			for _, rid := range rec.PendingRunners() {
				if rec.Executions(rid) == 0 {
					return false
				}
			}
			return true
		},
	}
}
