package process

import (
	"errors"
	"fmt"

	"mcmini/mailbox"
)

// An opaque pointer-sized handle into the child's address space. Remote
// addresses are assumed stable across successive child re-creations, since
// every child is forked from the same program image at the same entry
// point.
type RemoteAddress uint64

// A process source produces fresh child processes that execute the target
// under instrumentation from the beginning.
//
// The fork source below is the only implementation in this repository. A
// checkpoint-restart source that rehydrates a child from a previously taken
// checkpoint would plug in here; this interface is its only coupling point.
type Source interface {
	// Spawn a child and return once its main thread has posted its start
	// into mailbox 0; the main thread then waits for its first release.
	// The previous child, if any, is not affected.
	ForceNewProcess() (Handle, error)
}

// A handle on one live child process.
type Handle interface {
	// Release the runner with the given index and block until it posts its
	// next transition. At most one runner is ever released at a time.
	ExecuteRunner(runner int) (*mailbox.Mailbox, error)

	// The mailbox of the given runner. The content is meaningful only
	// after the runner posted.
	Mailbox(runner int) *mailbox.Mailbox

	IsAlive() bool

	// Kill the child and release its shared memory. Idempotent; guaranteed
	// to be called on every exit path from the search loop.
	Terminate() error
}

var ProcessDeadError = errors.New("process: the process is not alive")

// The child failed to spawn, died unexpectedly, failed to post, or posted
// an unregistered variant tag. Surfaced to the search loop, which
// terminates the search.
type ExecutionError struct {
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process: %v: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("process: %v", e.Message)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func Execf(err error, format string, args ...any) error {
	return &ExecutionError{Message: fmt.Sprintf(format, args...), Err: err}
}
