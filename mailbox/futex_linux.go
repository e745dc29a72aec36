package mailbox

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The rendezvous signals are plain (non-private) futex words so that they
// work across the checker/child process boundary on a MAP_SHARED segment.

// Futex operation codes from the Linux kernel ABI (linux/futex.h). Not
// exposed by golang.org/x/sys/unix, which only provides the SYS_FUTEX
// syscall number.
const (
	futexOpWait = 0
	futexOpWake = 1
)

func futexWait(word *uint32, expect uint32, timeout time.Duration) error {
	ts := unix.NsecToTimespec(timeout.Nanoseconds())
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(futexOpWait),
		uintptr(expect),
		uintptr(unsafe.Pointer(&ts)),
		0, 0,
	)
	switch errno {
	case 0, unix.EAGAIN, unix.EINTR, unix.ETIMEDOUT:
		// The caller re-checks the word and its deadline.
		return nil
	}
	return fmt.Errorf("mailbox: futex wait failed: %w", errno)
}

func futexWake(word *uint32) {
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(word)),
		uintptr(futexOpWake),
		1,
		0, 0, 0,
	)
}
