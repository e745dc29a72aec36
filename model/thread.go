package model

type ThreadState int

const (
	// Created but not yet scheduled for the first time.
	ThreadEmbryo ThreadState = iota
	ThreadRunning
	// Enqueued on a condition variable.
	ThreadSleeping
	ThreadExited
)

// The state machine of one thread in the target.
//
// Every thread is itself a visible object and therefore shares the object id
// space. It additionally carries a dense runner id assigned by the program
// model.
type Thread struct {
	Runner RunnerId
	State  ThreadState
	// The object the thread is currently sleeping on. InvalidId unless the
	// thread state is ThreadSleeping.
	SleepingOn ObjectId

	// A thread enters the model when its creation is announced, before the
	// creation has executed. It cannot be scheduled until then.
	created bool
	started bool
}

// Create a thread in the embryo state, not yet bound to a runner id.
func NewThread() *Thread {
	return &Thread{
		Runner:     InvalidRunner,
		State:      ThreadEmbryo,
		SleepingOn: InvalidId,
	}
}

// Create the model of the main thread. The main thread is already running
// when the model is constructed but has not executed its start transition.
func NewMainThread() *Thread {
	t := NewThread()
	t.State = ThreadRunning
	t.created = true
	return t
}

func (t *Thread) Kind() string { return "thread" }

// True if the thread exists in the target and its start transition has not
// executed yet.
func (t *Thread) CanStart() bool {
	return t.created && !t.started && t.State != ThreadExited
}

func (t *Thread) start() {
	t.started = true
	t.State = ThreadRunning
}

func (t *Thread) exit() {
	t.State = ThreadExited
	t.SleepingOn = InvalidId
}

func (t *Thread) sleepOn(obj ObjectId) {
	t.State = ThreadSleeping
	t.SleepingOn = obj
}

func (t *Thread) wake() {
	t.State = ThreadRunning
	t.SleepingOn = InvalidId
}
