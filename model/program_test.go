package model

import (
	"errors"
	"testing"

	"golang.org/x/exp/slices"
)

func TestInitialProgram(t *testing.T) {
	p := InitialProgram()

	if got := p.Runners(); !slices.Equal(got, []RunnerId{0}) {
		t.Fatalf("Initial program should have exactly runner 0. Got %v", got)
	}
	pending, ok := p.Pending(0)
	if !ok {
		t.Fatalf("The main runner should have a pending transition")
	}
	if pending.Type != ThreadStart || pending.Executor != 0 {
		t.Errorf("The main runner's pending transition should be its own start. Got %v", pending)
	}
	if !slices.Equal(p.EnabledRunners(), []RunnerId{0}) {
		t.Errorf("The main runner should be enabled in the initial state")
	}
	if p.IsDeadlocked() {
		t.Errorf("The initial state should not be deadlocked")
	}
}

// Drive a two-runner program by hand: main creates a thread, the thread
// locks and unlocks a mutex and exits, main joins it.
func TestProgramLifecycle(t *testing.T) {
	p := InitialProgram()
	execute := func(rid RunnerId, next *Transition) {
		t.Helper()
		if err := p.ModelExecutingRunner(rid, next); err != nil {
			t.Fatalf("Unexpected error executing runner %v: %v", rid, err)
		}
	}

	// main starts and announces the creation of a new thread
	th := NewThread()
	rid := p.AddRunner(th, StartTransition)
	if rid != 1 {
		t.Fatalf("Second runner should have id 1. Got %v", rid)
	}
	toid := p.RunnerObject(rid)
	execute(0, &Transition{Executor: 0, Type: ThreadCreate, Object: toid, Aux: InvalidId})

	// main announces the join; it is disabled until the thread exits
	mid := p.AddObject(NewMutex())
	execute(0, &Transition{Executor: 0, Type: ThreadJoin, Object: toid, Aux: InvalidId})
	if p.RunnerEnabled(0) {
		t.Errorf("Join of a running thread should be disabled")
	}

	// the new thread starts, initializes and locks the mutex
	execute(1, &Transition{Executor: 1, Type: MutexInit, Object: mid, Aux: InvalidId})
	execute(1, &Transition{Executor: 1, Type: MutexLock, Object: mid, Aux: InvalidId})
	execute(1, &Transition{Executor: 1, Type: MutexUnlock, Object: mid, Aux: InvalidId})
	m, _ := p.MutexAt(mid)
	if m.State != MutexLocked || m.Owner != 1 {
		t.Errorf("Mutex should be locked by runner 1 after the lock applied. Got state %v owner %v", m.State, m.Owner)
	}

	execute(1, &Transition{Executor: 1, Type: ThreadExit, Object: toid, Aux: InvalidId})
	execute(1, nil)
	if _, ok := p.Pending(1); ok {
		t.Errorf("Runner 1 should be terminal after its exit executed")
	}
	if !p.RunnerEnabled(0) {
		t.Errorf("Join should be enabled after the thread exited")
	}

	execute(0, &Transition{Executor: 0, Type: ThreadExit, Object: p.RunnerObject(0), Aux: InvalidId})
	execute(0, nil)

	if p.IsDeadlocked() {
		t.Errorf("All runners exited; the state should not be deadlocked")
	}

	// Invariant: the trace and pending set reference only extant objects.
	for i, tr := range p.Trace() {
		for _, id := range tr.Objects() {
			if !p.HasObject(id) {
				t.Errorf("Trace step %v references unknown object %v", i, id)
			}
		}
	}
}

func TestDeadlockDetection(t *testing.T) {
	p := InitialProgram()
	m1 := p.AddObject(&Mutex{State: MutexLocked, Owner: 1})
	m2 := p.AddObject(&Mutex{State: MutexLocked, Owner: 0})

	// main wants m1, a second runner wants m2: classic AB/BA
	th := NewThread()
	th.start()
	rid := p.AddRunner(th, nil)
	p.pending[rid] = Transition{Executor: rid, Type: MutexLock, Object: m2, Aux: InvalidId}
	p.pending[0] = Transition{Executor: 0, Type: MutexLock, Object: m1, Aux: InvalidId}

	if got := p.EnabledRunners(); len(got) != 0 {
		t.Fatalf("No runner should be enabled. Got %v", got)
	}
	if !p.IsDeadlocked() {
		t.Errorf("Two runners blocked on each other's mutex should be a deadlock")
	}
}

func TestExitedRunnersAreNotADeadlock(t *testing.T) {
	p := InitialProgram()
	oid := p.RunnerObject(0)
	if err := p.ModelExecutingRunner(0, &Transition{Executor: 0, Type: ThreadExit, Object: oid, Aux: InvalidId}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := p.ModelExecutingRunner(0, nil); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.IsDeadlocked() {
		t.Errorf("A fully exited program is terminal, not deadlocked")
	}
	if err := p.ModelExecutingRunner(0, nil); err == nil {
		t.Errorf("Executing a terminal runner should fail")
	}
}

func TestUndefinedBehaviorLeavesModelUnchanged(t *testing.T) {
	p := InitialProgram()
	mid := p.AddObject(NewMutex())
	if err := p.SetPending(0, Transition{Executor: 0, Type: MutexLock, Object: mid, Aux: InvalidId}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	err := p.ModelExecutingRunner(0, nil)
	var ub *UndefinedBehaviorError
	if !errors.As(err, &ub) {
		t.Fatalf("Locking an uninitialized mutex should be undefined behavior. Got %v", err)
	}
	if ub.Reason != "Attempting to lock an uninitialized mutex" {
		t.Errorf("Unexpected reason: %v", ub.Reason)
	}
	if p.TraceLen() != 0 {
		t.Errorf("The undefined transition must not be appended to the trace")
	}
	if _, ok := p.Pending(0); !ok {
		t.Errorf("The runner's pending entry must survive the failed apply")
	}
}

func TestSetPendingRequiresLiveRunner(t *testing.T) {
	p := NewProgram()
	if err := p.SetPending(3, Transition{}); err == nil {
		t.Errorf("SetPending on an unknown runner should fail")
	}
}

func TestPutObjectKeepsExisting(t *testing.T) {
	p := NewProgram()
	id := p.AddObject(&Mutex{State: MutexLocked, Owner: 2})
	p.PutObject(id, NewMutex())
	m, _ := p.MutexAt(id)
	if m.State != MutexLocked {
		t.Errorf("PutObject must not replace an existing object")
	}

	p.PutObject(7, NewMutex())
	if next := p.AddObject(NewMutex()); next != 8 {
		t.Errorf("Object ids must stay dense past explicit inserts. Got %v", next)
	}
}
