package model

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// The abstract state of the target: visible objects, runners, the executed
// trace and the pending next step of every live runner.
//
// The program is mutated only while a transition is applied and is otherwise
// read-only. Objects are appended when first observed and never removed;
// destroyed primitives remain in the model in a terminal state.
type Program struct {
	objects map[ObjectId]VisibleObject
	// runner id -> object id of the runner's thread object
	runners map[RunnerId]ObjectId
	trace   []Transition
	pending map[RunnerId]Transition

	nextObject ObjectId
	nextRunner RunnerId
}

// Create an empty program with no runners and no objects.
func NewProgram() *Program {
	return &Program{
		objects: map[ObjectId]VisibleObject{},
		runners: map[RunnerId]ObjectId{},
		trace:   []Transition{},
		pending: map[RunnerId]Transition{},
	}
}

// Create the initial program: one running main thread (runner 0) whose
// pending transition is its own start, and zero non-runner objects.
func InitialProgram() *Program {
	p := NewProgram()
	p.AddRunner(NewMainThread(), StartTransition)
	return p
}

// The initial pending transition of a newborn runner.
func StartTransition(rid RunnerId, oid ObjectId) *Transition {
	return &Transition{Executor: rid, Type: ThreadStart, Object: oid, Aux: InvalidId}
}

// Append a new visible object and return its id.
func (p *Program) AddObject(obj VisibleObject) ObjectId {
	id := p.nextObject
	p.nextObject++
	p.objects[id] = obj
	return id
}

// Insert a visible object at a previously allocated id, typically when an
// already-observed address is seen again after a child restart. Keeps the
// existing object if the id is already populated.
func (p *Program) PutObject(id ObjectId, obj VisibleObject) {
	if _, ok := p.objects[id]; !ok {
		p.objects[id] = obj
	}
	if id >= p.nextObject {
		p.nextObject = id + 1
	}
}

// Append a new runner backed by the given thread object. The thread is
// registered in the object table as well. If start is non-nil its result is
// installed as the runner's initial pending transition.
func (p *Program) AddRunner(th *Thread, start func(RunnerId, ObjectId) *Transition) RunnerId {
	oid := p.AddObject(th)
	rid := p.nextRunner
	p.nextRunner++
	th.Runner = rid
	p.runners[rid] = oid
	if start != nil {
		if t := start(rid, oid); t != nil {
			p.pending[rid] = *t
		}
	}
	return rid
}

// Insert a runner at previously allocated runner and object ids, typically
// when an already-observed thread is seen again after a child restart.
// Keeps the existing runner if the id is already populated.
func (p *Program) PutRunner(rid RunnerId, oid ObjectId, th *Thread, start func(RunnerId, ObjectId) *Transition) {
	if _, ok := p.runners[rid]; ok {
		return
	}
	th.Runner = rid
	p.PutObject(oid, th)
	p.runners[rid] = oid
	if rid >= p.nextRunner {
		p.nextRunner = rid + 1
	}
	if start != nil {
		if t := start(rid, oid); t != nil {
			p.pending[rid] = *t
		}
	}
}

func (p *Program) HasObject(id ObjectId) bool {
	_, ok := p.objects[id]
	return ok
}

func (p *Program) Object(id ObjectId) VisibleObject {
	return p.objects[id]
}

func (p *Program) MutexAt(id ObjectId) (*Mutex, bool) {
	m, ok := p.objects[id].(*Mutex)
	return m, ok
}

func (p *Program) ThreadAt(id ObjectId) (*Thread, bool) {
	t, ok := p.objects[id].(*Thread)
	return t, ok
}

func (p *Program) CondVarAt(id ObjectId) (*CondVar, bool) {
	c, ok := p.objects[id].(*CondVar)
	return c, ok
}

// The thread object of a runner, or nil if the runner does not exist.
func (p *Program) Thread(rid RunnerId) *Thread {
	oid, ok := p.runners[rid]
	if !ok {
		return nil
	}
	t, _ := p.ThreadAt(oid)
	return t
}

// The object id of a runner's thread object.
func (p *Program) RunnerObject(rid RunnerId) ObjectId {
	oid, ok := p.runners[rid]
	if !ok {
		return InvalidId
	}
	return oid
}

// All runner ids in ascending order.
func (p *Program) Runners() []RunnerId {
	out := maps.Keys(p.runners)
	slices.Sort(out)
	return out
}

// All object ids in ascending order.
func (p *Program) ObjectIds() []ObjectId {
	out := maps.Keys(p.objects)
	slices.Sort(out)
	return out
}

// Replace the pending transition of a live runner.
func (p *Program) SetPending(rid RunnerId, t Transition) error {
	if _, ok := p.pending[rid]; !ok {
		return fmt.Errorf("model: runner %v has no pending transition to replace", rid)
	}
	p.pending[rid] = t
	return nil
}

// The pending transition of a runner. The second result is false if the
// runner is terminal.
func (p *Program) Pending(rid RunnerId) (Transition, bool) {
	t, ok := p.pending[rid]
	return t, ok
}

// An immutable view of the pending transitions of all live runners.
func (p *Program) PendingTransitions() map[RunnerId]Transition {
	return maps.Clone(p.pending)
}

// An immutable view of the executed trace.
func (p *Program) Trace() []Transition {
	return slices.Clone(p.trace)
}

func (p *Program) TraceLen() int {
	return len(p.trace)
}

// Called when the child has just stopped having attempted its next
// operation: the runner's previous pending transition (now executed) is
// appended to the trace and applied, and the newly announced pending
// transition replaces it. A nil next transition marks the runner terminal.
//
// If applying the executed transition violates its preconditions the model
// is left unchanged and the undefined behavior is returned.
func (p *Program) ModelExecutingRunner(rid RunnerId, next *Transition) error {
	prev, ok := p.pending[rid]
	if !ok {
		return fmt.Errorf("model: runner %v is terminal and cannot execute", rid)
	}
	if err := prev.Apply(p); err != nil {
		return err
	}
	p.trace = append(p.trace, prev)
	if next == nil {
		delete(p.pending, rid)
	} else {
		p.pending[rid] = *next
	}
	return nil
}

// True if the runner's pending transition is enabled.
func (p *Program) RunnerEnabled(rid RunnerId) bool {
	t, ok := p.pending[rid]
	if !ok {
		return false
	}
	return t.IsEnabled(p)
}

// Runners whose pending transition is enabled, in ascending runner id
// order (the deterministic tie-break order of the search).
func (p *Program) EnabledRunners() []RunnerId {
	out := []RunnerId{}
	for _, rid := range p.Runners() {
		if p.RunnerEnabled(rid) {
			out = append(out, rid)
		}
	}
	return out
}

// True if no runner is enabled and at least one non-exited runner remains.
// A runner without a pending transition is terminal and counts as exited.
func (p *Program) IsDeadlocked() bool {
	if len(p.EnabledRunners()) > 0 {
		return false
	}
	return len(p.pending) > 0
}
