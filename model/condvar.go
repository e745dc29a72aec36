package model

import "golang.org/x/exp/slices"

type CondVarState int

const (
	CondVarUninitialized CondVarState = iota
	CondVarReady
	CondVarDestroyed
)

// The state machine of one condition variable in the target.
//
// The associated mutex is assigned on the first enqueue and must remain
// stable for the lifetime of the condition variable. Destroyed condition
// variables remain in the model in the terminal state.
type CondVar struct {
	State CondVarState
	// The mutex associated with the condition variable. InvalidId until the
	// first enqueue.
	Mutex ObjectId
	// Runners currently enqueued, in enqueue order.
	Waiters []RunnerId
	// Runners that have been signalled and may reacquire the mutex.
	Awake []RunnerId
}

// Create a condition variable in the uninitialized state.
//
// Used as the fallback initial state when a condition variable is first
// observed through an operation other than its initialization.
func NewCondVar() *CondVar {
	return &CondVar{
		State: CondVarUninitialized,
		Mutex: InvalidId,
	}
}

func (c *CondVar) Kind() string { return "condition variable" }

func (c *CondVar) enqueue(r RunnerId) {
	c.Waiters = append(c.Waiters, r)
}

// Move the longest-waiting runner into the awake set.
// Signalling with no waiters is a no-op, as in the real primitive.
func (c *CondVar) signal() {
	if len(c.Waiters) == 0 {
		return
	}
	c.Awake = append(c.Awake, c.Waiters[0])
	c.Waiters = c.Waiters[1:]
}

func (c *CondVar) broadcast() {
	c.Awake = append(c.Awake, c.Waiters...)
	c.Waiters = nil
}

func (c *CondVar) isAwake(r RunnerId) bool {
	return slices.Contains(c.Awake, r)
}

func (c *CondVar) removeAwake(r RunnerId) {
	if i := slices.Index(c.Awake, r); i >= 0 {
		c.Awake = slices.Delete(c.Awake, i, i+1)
	}
}

// True if some runner is enqueued or signalled but not yet resumed.
func (c *CondVar) hasSleepers() bool {
	return len(c.Waiters) > 0 || len(c.Awake) > 0
}
