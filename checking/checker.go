package checking

import (
	"fmt"
	"strings"
)

// Aggregates the trace records reported by the search and evaluates the
// configured predicates against each of them.
type Collector struct {
	predicates []Predicate

	traces     int
	deadlocks  []TraceRecord
	undefined  []TraceRecord
	violations []Violation
}

// A predicate that did not hold for some explored trace.
type Violation struct {
	Predicate string
	Record    TraceRecord
}

func NewCollector(predicates ...Predicate) *Collector {
	return &Collector{predicates: predicates}
}

// Record one explored trace. Implements the search's reporter contract.
func (c *Collector) TraceCompleted(rec TraceRecord) {
	c.traces++
	switch rec.Outcome {
	case OutcomeDeadlock:
		c.deadlocks = append(c.deadlocks, rec)
	case OutcomeUndefinedBehavior:
		c.undefined = append(c.undefined, rec)
	}
	for _, pred := range c.predicates {
		if !pred.Holds(rec) {
			c.violations = append(c.violations, Violation{Predicate: pred.Name, Record: rec})
		}
	}
}

func (c *Collector) Response() CheckerResponse {
	return CheckerResponse{
		Traces:     c.traces,
		Deadlocks:  c.deadlocks,
		Undefined:  c.undefined,
		Violations: c.violations,
	}
}

// The outcome of one completed search.
type CheckerResponse struct {
	// Total number of complete traces explored.
	Traces     int
	Deadlocks  []TraceRecord
	Undefined  []TraceRecord
	Violations []Violation
}

// True together with a summary if no explored trace broke a predicate.
// False with the offending trace otherwise.
func (r CheckerResponse) Response() (bool, string) {
	if len(r.Violations) == 0 {
		return true, fmt.Sprintf("All predicates hold across %v explored traces", r.Traces)
	}
	v := r.Violations[0]
	out := strings.Builder{}
	fmt.Fprintf(&out, "Predicate broken. Predicate: %v. Trace %v (%v). Sequence:\n",
		v.Predicate, v.Record.Id, v.Record.Outcome)
	for _, t := range v.Record.Trace {
		fmt.Fprintf(&out, "-> thread %v: %v\n", t.Executor, t)
	}
	return false, out.String()
}
