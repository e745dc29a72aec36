package checking

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"mcmini/model"
)

// How one explored trace ended.
type Outcome int

const (
	// Every runner exited, or every runner that was still enabled had hit
	// the per-runner depth bound.
	OutcomeCompleted Outcome = iota
	// No runner was enabled while at least one non-exited runner remained.
	OutcomeDeadlock
	// A transition's precondition was violated by the target.
	OutcomeUndefinedBehavior
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeDeadlock:
		return "deadlock"
	case OutcomeUndefinedBehavior:
		return "undefined behavior"
	}
	return "unknown"
}

// The result of exploring one complete trace: the sequence of transitions
// that produced it and the next operation every live runner had announced
// when the trace ended.
type TraceRecord struct {
	Id      int
	Outcome Outcome
	Trace   []model.Transition
	Pending map[model.RunnerId]model.Transition
	// The violated precondition for an undefined behavior record.
	Reason string
}

// Runner ids with a pending transition, in ascending order.
func (r TraceRecord) PendingRunners() []model.RunnerId {
	out := maps.Keys(r.Pending)
	slices.Sort(out)
	return out
}

// Number of transitions the given runner executed in the trace.
func (r TraceRecord) Executions(rid model.RunnerId) int {
	n := 0
	for _, t := range r.Trace {
		if t.Executor == rid {
			n++
		}
	}
	return n
}
