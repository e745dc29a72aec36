package model

import "fmt"

// The variant of a transition. The zero value is invalid so that an
// uninitialized transition is never mistaken for a real one.
type Type int

const (
	InvalidType Type = iota
	MutexInit
	MutexLock
	MutexUnlock
	ThreadCreate
	ThreadStart
	ThreadExit
	ThreadJoin
	CondInit
	CondEnqueue
	CondWaitResume
	CondSignal
	CondBroadcast
	CondDestroy
)

// A transition is an immutable record of one scheduled visible action: the
// runner that will execute it, the variant, and the object ids it operates
// on. Object is the primary object of the operation. Aux is the secondary
// object (the mutex of a condition variable operation) and InvalidId for
// every other variant.
type Transition struct {
	Executor RunnerId
	Type     Type
	Object   ObjectId
	Aux      ObjectId
}

// The object ids the transition references.
func (t Transition) Objects() []ObjectId {
	out := []ObjectId{}
	if t.Object != InvalidId {
		out = append(out, t.Object)
	}
	if t.Aux != InvalidId {
		out = append(out, t.Aux)
	}
	return out
}

func (t Transition) references(id ObjectId) bool {
	return id != InvalidId && (t.Object == id || t.Aux == id)
}

// True if the transition's local precondition permits progress in the given
// state. A transition whose execution would be undefined behavior is
// enabled so that the violation is surfaced when it applies, rather than
// being mistaken for a deadlock.
func (t Transition) IsEnabled(p *Program) bool {
	switch t.Type {
	case MutexLock:
		m, ok := p.MutexAt(t.Object)
		if !ok {
			return true
		}
		return m.CanLock()
	case ThreadStart:
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return true
		}
		return th.CanStart()
	case ThreadJoin:
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return true
		}
		return th.State == ThreadExited
	case CondWaitResume:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return true
		}
		if !c.isAwake(t.Executor) {
			return false
		}
		m, ok := p.MutexAt(t.Aux)
		if !ok {
			return true
		}
		return m.CanLock()
	default:
		return true
	}
}

// Update the affected visible objects. Never mutates unrelated objects.
// Returns an UndefinedBehaviorError if the target violated the primitive's
// preconditions; the model is unchanged in that case.
func (t Transition) Apply(p *Program) error {
	switch t.Type {
	case MutexInit:
		m, ok := p.MutexAt(t.Object)
		if !ok {
			return fmt.Errorf("model: mutex %v does not exist", t.Object)
		}
		m.State = MutexUnlocked
		m.Owner = InvalidRunner
		return nil

	case MutexLock:
		m, ok := p.MutexAt(t.Object)
		if !ok {
			return fmt.Errorf("model: mutex %v does not exist", t.Object)
		}
		if m.State == MutexUninitialized {
			return undefinedBehavior(t, "Attempting to lock an uninitialized mutex")
		}
		if m.State == MutexLocked {
			return fmt.Errorf("model: applied %v while the mutex is held", t)
		}
		m.lock(t.Executor)
		return nil

	case MutexUnlock:
		m, ok := p.MutexAt(t.Object)
		if !ok {
			return fmt.Errorf("model: mutex %v does not exist", t.Object)
		}
		if m.State == MutexUninitialized {
			return undefinedBehavior(t, "Attempting to unlock an uninitialized mutex")
		}
		if m.State == MutexUnlocked {
			return undefinedBehavior(t, "Attempting to unlock an unlocked mutex")
		}
		if m.Owner != t.Executor {
			return undefinedBehavior(t, "Attempting to unlock a mutex locked by another thread")
		}
		m.unlock()
		return nil

	case ThreadCreate:
		// The created thread was inserted into the model when the creation
		// was announced; it becomes schedulable only now.
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return fmt.Errorf("model: thread %v does not exist", t.Object)
		}
		th.created = true
		return nil

	case ThreadStart:
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return fmt.Errorf("model: thread %v does not exist", t.Object)
		}
		th.start()
		return nil

	case ThreadExit:
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return fmt.Errorf("model: thread %v does not exist", t.Object)
		}
		th.exit()
		return nil

	case ThreadJoin:
		th, ok := p.ThreadAt(t.Object)
		if !ok {
			return fmt.Errorf("model: thread %v does not exist", t.Object)
		}
		if th.State != ThreadExited {
			return fmt.Errorf("model: applied %v before the thread exited", t)
		}
		return nil

	case CondInit:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return fmt.Errorf("model: condition variable %v does not exist", t.Object)
		}
		c.State = CondVarReady
		c.Mutex = InvalidId
		c.Waiters = nil
		c.Awake = nil
		return nil

	case CondEnqueue:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return fmt.Errorf("model: condition variable %v does not exist", t.Object)
		}
		m, ok := p.MutexAt(t.Aux)
		if !ok {
			return fmt.Errorf("model: mutex %v does not exist", t.Aux)
		}
		if c.State == CondVarUninitialized {
			return undefinedBehavior(t, "Attempting to wait on a condition variable that is uninitialized")
		}
		if c.State == CondVarDestroyed {
			return undefinedBehavior(t, "Attempting to wait on a destroyed condition variable")
		}
		if m.State == MutexUninitialized {
			return undefinedBehavior(t, "Attempting to wait on a condition variable with an uninitialized mutex")
		}
		if m.State != MutexLocked || m.Owner != t.Executor {
			return undefinedBehavior(t, "Attempting to wait on a condition variable without holding the mutex")
		}
		if c.Mutex != InvalidId && c.Mutex != t.Aux {
			return undefinedBehavior(t, "A mutex has already been associated with this condition variable. "+
				"Attempting to use another mutex with the same condition variable is undefined")
		}
		c.enqueue(t.Executor)
		c.Mutex = t.Aux
		m.unlock()
		if th := p.Thread(t.Executor); th != nil {
			th.sleepOn(t.Object)
		}
		return nil

	case CondWaitResume:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return fmt.Errorf("model: condition variable %v does not exist", t.Object)
		}
		m, ok := p.MutexAt(t.Aux)
		if !ok {
			return fmt.Errorf("model: mutex %v does not exist", t.Aux)
		}
		if !c.isAwake(t.Executor) || m.State == MutexLocked {
			return fmt.Errorf("model: applied %v while it is disabled", t)
		}
		c.removeAwake(t.Executor)
		m.lock(t.Executor)
		if th := p.Thread(t.Executor); th != nil {
			th.wake()
		}
		return nil

	case CondSignal, CondBroadcast:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return fmt.Errorf("model: condition variable %v does not exist", t.Object)
		}
		if c.State == CondVarUninitialized {
			return undefinedBehavior(t, "Attempting to signal an uninitialized condition variable")
		}
		if c.State == CondVarDestroyed {
			return undefinedBehavior(t, "Attempting to signal a destroyed condition variable")
		}
		if t.Type == CondSignal {
			c.signal()
		} else {
			c.broadcast()
		}
		return nil

	case CondDestroy:
		c, ok := p.CondVarAt(t.Object)
		if !ok {
			return fmt.Errorf("model: condition variable %v does not exist", t.Object)
		}
		if c.hasSleepers() {
			return undefinedBehavior(t, "Attempting to destroy a condition variable on which threads are waiting")
		}
		c.State = CondVarDestroyed
		return nil
	}
	return fmt.Errorf("model: cannot apply a transition of unknown type %v", t.Type)
}

func (t Transition) String() string {
	switch t.Type {
	case MutexInit:
		return fmt.Sprintf("pthread_mutex_init(%v)", t.Object)
	case MutexLock:
		return fmt.Sprintf("pthread_mutex_lock(%v)", t.Object)
	case MutexUnlock:
		return fmt.Sprintf("pthread_mutex_unlock(%v)", t.Object)
	case ThreadCreate:
		return fmt.Sprintf("thread_create(%v)", t.Object)
	case ThreadStart:
		return "thread_start"
	case ThreadExit:
		return "thread_exit"
	case ThreadJoin:
		return fmt.Sprintf("thread_join(%v)", t.Object)
	case CondInit:
		return fmt.Sprintf("pthread_cond_init(%v)", t.Object)
	case CondEnqueue:
		return fmt.Sprintf("pthread_cond_wait(%v, %v) (asleep)", t.Object, t.Aux)
	case CondWaitResume:
		return fmt.Sprintf("pthread_cond_wait(%v, %v) (awake)", t.Object, t.Aux)
	case CondSignal:
		return fmt.Sprintf("pthread_cond_signal(%v)", t.Object)
	case CondBroadcast:
		return fmt.Sprintf("pthread_cond_broadcast(%v)", t.Object)
	case CondDestroy:
		return fmt.Sprintf("pthread_cond_destroy(%v)", t.Object)
	}
	return fmt.Sprintf("unknown(%v)", int(t.Type))
}

// Undefined behavior in the target: a transition whose precondition was
// violated. Reported together with the current trace and counted as a
// terminal state for the current search path.
type UndefinedBehaviorError struct {
	Reason     string
	Transition Transition
}

func (e *UndefinedBehaviorError) Error() string {
	return fmt.Sprintf("undefined behavior by runner %v in %v: %v",
		e.Transition.Executor, e.Transition, e.Reason)
}

func undefinedBehavior(t Transition, reason string) error {
	return &UndefinedBehaviorError{Reason: reason, Transition: t}
}
