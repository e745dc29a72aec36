package explorer

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"mcmini/checking"
	"mcmini/model"
)

// The explorer's view of the coordinator: restart the child from scratch
// and execute one scheduled runner against the live program model.
type Driver interface {
	// Discard the current child, spawn a fresh one and reset the model to
	// the initial state.
	Restart() error
	// Release the runner, await its posting and advance the model by one
	// transition.
	ExecuteRunner(model.RunnerId) error
	// The live program model. Invalidated by Restart.
	Program() *model.Program
}

// Receives one record per complete explored trace.
type Reporter interface {
	TraceCompleted(checking.TraceRecord)
}

// The classic stateless DPOR search.
//
// The explorer maintains one exploration frame per position of the current
// trace. It repeatedly replays the prefix up to the deepest frame that
// still has unexplored backtrack choices, takes one of them, and extends
// the trace depth-first until no runner is enabled, propagating dependency
// information backwards along the way. Replays run against a fresh child
// each time; the model carries no snapshots.
type Explorer struct {
	driver   Driver
	reporter Reporter

	// Per-runner transition cap within one explored trace. 0 is unbounded.
	maxDepthPerThread int
	// Stop after the first deadlock has been reported.
	firstDeadlock bool
	// Maximum number of complete traces to explore. 0 is unbounded.
	maxTraces int

	stack   []*frame
	traceId int
}

func New(driver Driver, reporter Reporter, maxDepthPerThread, maxTraces int, firstDeadlock bool) *Explorer {
	return &Explorer{
		driver:            driver,
		reporter:          reporter,
		maxDepthPerThread: maxDepthPerThread,
		firstDeadlock:     firstDeadlock,
		maxTraces:         maxTraces,
	}
}

// Run the search to completion. Returns nil when the reduced state space
// has been exhausted, the trace budget was spent, or the first deadlock was
// found under the first-deadlock policy. Execution errors abort the search.
//
// For every Mazurkiewicz equivalence class of executions reachable from the
// initial state, at least one representative is explored.
func (e *Explorer) Run(ctx context.Context) error {
	branch := model.InvalidRunner
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.maxTraces > 0 && e.traceId >= e.maxTraces {
			return nil
		}

		if err := e.driver.Restart(); err != nil {
			return err
		}
		// Replay the recorded prefix below the branching frame. Replay of
		// a previously explored prefix is deterministic, so any failure
		// here is fatal.
		depth := len(e.stack)
		if branch != model.InvalidRunner {
			depth--
		}
		for i := 0; i < depth; i++ {
			if err := e.driver.ExecuteRunner(e.stack[i].chosen); err != nil {
				return fmt.Errorf("explorer: replay diverged at step %v: %w", i, err)
			}
		}

		var ub *model.UndefinedBehaviorError
		var err error
		if branch != model.InvalidRunner {
			ub, err = e.branchInto(branch)
			if err != nil {
				return err
			}
			branch = model.InvalidRunner
		}

		// Extend depth-first until no runner can take a step.
		for ub == nil {
			rid, ok := e.nextRunner()
			if !ok {
				break
			}
			ub, err = e.push(rid)
			if err != nil {
				return err
			}
		}

		deadlock := e.report(ub)
		if deadlock && e.firstDeadlock {
			return nil
		}

		j := e.deepestUnexplored()
		if j < 0 {
			return nil
		}
		e.stack = e.stack[:j+1]
		branch = e.stack[j].unexplored()[0]
	}
}

// Re-execute the topmost frame with a different choice. The frame's
// pre-state is identical to the one recorded when the frame was first
// pushed, so its enabled set is reused.
func (e *Explorer) branchInto(rid model.RunnerId) (*model.UndefinedBehaviorError, error) {
	fr := e.stack[len(e.stack)-1]
	ub, err := e.execute(rid)
	if ub != nil || err != nil {
		// The choice was attempted either way.
		fr.done[rid] = true
		return ub, err
	}
	fr.chosen = rid
	fr.taken = e.lastExecuted()
	fr.done[rid] = true
	e.propagate()
	return nil, nil
}

// Execute one more step from the current frontier and push its frame.
func (e *Explorer) push(rid model.RunnerId) (*model.UndefinedBehaviorError, error) {
	enabled := e.driver.Program().EnabledRunners()
	ub, err := e.execute(rid)
	if ub != nil || err != nil {
		return ub, err
	}
	e.stack = append(e.stack, newFrame(rid, e.lastExecuted(), enabled))
	e.propagate()
	return nil, nil
}

func (e *Explorer) execute(rid model.RunnerId) (*model.UndefinedBehaviorError, error) {
	err := e.driver.ExecuteRunner(rid)
	var ub *model.UndefinedBehaviorError
	if errors.As(err, &ub) {
		return ub, nil
	}
	return nil, err
}

func (e *Explorer) lastExecuted() model.Transition {
	trace := e.driver.Program().Trace()
	return trace[len(trace)-1]
}

// The next runner to extend with: the enabled runner with the lowest id
// that has not exhausted its per-runner depth budget.
func (e *Explorer) nextRunner() (model.RunnerId, bool) {
	p := e.driver.Program()
	for _, rid := range p.EnabledRunners() {
		if e.maxDepthPerThread > 0 && e.executions(rid) >= e.maxDepthPerThread {
			continue
		}
		return rid, true
	}
	return model.InvalidRunner, false
}

func (e *Explorer) executions(rid model.RunnerId) int {
	n := 0
	for _, fr := range e.stack {
		if fr.taken.Executor == rid {
			n++
		}
	}
	return n
}

// DPOR back-propagation: after a step has executed, race every runner's
// announced next transition against the executed trace. For each pending
// transition, the latest earlier step of a different runner it depends on
// is a branching point from which the pending transition must eventually be
// tried: its runner is added to that frame's backtrack set if it was
// enabled there, otherwise every runner enabled there is added (the safe
// over-approximation).
//
// The race condition is dependency alone. Filtering on co-enabledness with
// this transition algebra would drop the mutual-exclusion pairs (two locks
// of one mutex) whose reorderings are exactly the lock-order deadlocks the
// checker exists to find.
func (e *Explorer) propagate() {
	pending := e.driver.Program().PendingTransitions()
	rids := maps.Keys(pending)
	slices.Sort(rids)
	for _, rid := range rids {
		e.propagateFor(rid, pending[rid])
	}
}

func (e *Explorer) propagateFor(rid model.RunnerId, next model.Transition) {
	for j := len(e.stack) - 1; j >= 0; j-- {
		tj := e.stack[j].taken
		if tj.Executor == rid || !model.Depends(tj, next) {
			continue
		}
		fr := e.stack[j]
		if fr.wasEnabled(rid) {
			fr.backtrack[rid] = true
		} else {
			for _, enabled := range fr.enabled {
				fr.backtrack[enabled] = true
			}
		}
		return
	}
}

// Classify and report the trace that just ended. Returns true for a
// deadlock.
//
// A runner parked by the depth bound is not a deadlock: deadlock requires
// that no runner is enabled under the model's own preconditions.
func (e *Explorer) report(ub *model.UndefinedBehaviorError) bool {
	p := e.driver.Program()
	rec := checking.TraceRecord{
		Id:      e.traceId,
		Outcome: checking.OutcomeCompleted,
		Trace:   p.Trace(),
		Pending: p.PendingTransitions(),
	}
	switch {
	case ub != nil:
		rec.Outcome = checking.OutcomeUndefinedBehavior
		rec.Reason = ub.Reason
	case p.IsDeadlocked():
		rec.Outcome = checking.OutcomeDeadlock
	}
	e.traceId++
	e.reporter.TraceCompleted(rec)
	return rec.Outcome == checking.OutcomeDeadlock
}

func (e *Explorer) deepestUnexplored() int {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if len(e.stack[i].unexplored()) > 0 {
			return i
		}
	}
	return -1
}

// Number of complete traces reported so far.
func (e *Explorer) TracesExplored() int {
	return e.traceId
}
