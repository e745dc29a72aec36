package mailbox

import (
	"testing"
	"time"
)

func TestMailboxLayoutIsPerRunner(t *testing.T) {
	segment := make([]byte, 4*BlockSize)
	if got := Count(len(segment)); got != 4 {
		t.Fatalf("Segment should hold 4 mailboxes. Got %v", got)
	}

	for runner := 0; runner < 4; runner++ {
		mb := At(segment, runner)
		mb.SetTag(TagMutexLock)
		mb.SetWord(0, uint64(0xdead0000+runner))
		mb.SetWord(1, uint64(runner))
	}
	for runner := 0; runner < 4; runner++ {
		mb := At(segment, runner)
		if mb.Tag() != TagMutexLock {
			t.Errorf("Runner %v: Got tag %v. Expected %v", runner, mb.Tag(), TagMutexLock)
		}
		if mb.Word(0) != uint64(0xdead0000+runner) || mb.Word(1) != uint64(runner) {
			t.Errorf("Runner %v: payload words were clobbered by a neighbour", runner)
		}
	}
}

func TestPostedRendezvous(t *testing.T) {
	segment := make([]byte, BlockSize)
	mb := At(segment, 0)

	done := make(chan error)
	go func() {
		done <- mb.AwaitPosted(5 * time.Second)
	}()

	mb.SetTag(TagThreadStart)
	mb.Post()
	if err := <-done; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if mb.Tag() != TagThreadStart {
		t.Errorf("Got tag %v after the post. Expected %v", mb.Tag(), TagThreadStart)
	}

	// One-shot: the signal must be re-armed explicitly.
	mb.ClearPosted()
	if err := mb.AwaitPosted(10 * time.Millisecond); err != PostTimeoutError {
		t.Errorf("Got %v waiting on a cleared signal. Expected %v", err, PostTimeoutError)
	}
}

func TestReleaseRendezvous(t *testing.T) {
	segment := make([]byte, BlockSize)
	mb := At(segment, 0)

	if err := mb.AwaitRelease(10 * time.Millisecond); err != ReleaseTimeoutError {
		t.Fatalf("Got %v before any release. Expected %v", err, ReleaseTimeoutError)
	}

	done := make(chan error)
	go func() {
		done <- mb.AwaitRelease(5 * time.Second)
	}()
	mb.Release()
	if err := <-done; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

func TestAwaitPostedSeesEarlierPost(t *testing.T) {
	segment := make([]byte, BlockSize)
	mb := At(segment, 0)
	mb.Post()
	if err := mb.AwaitPosted(10 * time.Millisecond); err != nil {
		t.Fatalf("A post before the wait must satisfy it. Got %v", err)
	}
}
