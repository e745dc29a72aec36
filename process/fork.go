package process

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/kballard/go-shellquote"
	psprocess "github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sync/errgroup"

	"mcmini/mailbox"
)

// Child-side contract of the fork source: the name and size of the mailbox
// segment, handed to the trampoline library through the environment.
const (
	EnvShmName = "MCMINI_SHM_NAME"
	EnvShmSize = "MCMINI_SHM_SIZE"
)

const DefaultPostTimeout = 3 * time.Second

// A process source that spawns the target executable directly, with the
// trampoline library preloaded so that every tracked primitive rendezvouses
// through its mailbox. The initial transition posted is always the start of
// the main thread.
type ForkSource struct {
	// Path of the target executable and its arguments.
	Target string
	Argv   []string

	// Path of the trampoline library preloaded into the child. Empty
	// disables preloading (the target is expected to link it directly).
	Trampoline string

	// Maximum number of runners one child may announce. Sizes the segment.
	MaxRunners int

	// Additional child environment (the MCMINI_* contract variables).
	Env []string

	// How long to wait for a runner to post before the child is considered
	// faulty.
	PostTimeout time.Duration

	// Log every spawned command line when set.
	Verbose bool
}

func (s *ForkSource) timeout() time.Duration {
	if s.PostTimeout <= 0 {
		return DefaultPostTimeout
	}
	return s.PostTimeout
}

func (s *ForkSource) runners() int {
	if s.MaxRunners <= 0 {
		return 64
	}
	return s.MaxRunners
}

// Spawn a fresh child and wait for the main thread's first post.
func (s *ForkSource) ForceNewProcess() (Handle, error) {
	seg, err := createSegment(s.runners() * mailbox.BlockSize)
	if err != nil {
		return nil, Execf(err, "failed to create the mailbox segment")
	}

	cmd := exec.Command(s.Target, s.Argv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("%v=%v", EnvShmName, seg.name),
		fmt.Sprintf("%v=%v", EnvShmSize, len(seg.data)),
	)
	if s.Trampoline != "" {
		cmd.Env = append(cmd.Env, "LD_PRELOAD="+s.Trampoline)
	}
	cmd.Env = append(cmd.Env, s.Env...)

	if s.Verbose {
		log.Printf("process: spawning %v", shellquote.Join(append([]string{s.Target}, s.Argv...)...))
	}
	if err := cmd.Start(); err != nil {
		seg.close()
		return nil, Execf(err, "failed to spawn %v", s.Target)
	}

	h := &forkHandle{
		cmd:     cmd,
		seg:     seg,
		timeout: s.timeout(),
	}
	h.wait.Go(func() error { return cmd.Wait() })

	// The child is ready once the main thread announced its start.
	if err := h.Mailbox(0).AwaitPosted(h.timeout); err != nil {
		h.Terminate()
		return nil, Execf(err, "the child never posted its first transition")
	}
	return h, nil
}

type forkHandle struct {
	cmd     *exec.Cmd
	seg     *segment
	timeout time.Duration

	wait errgroup.Group

	mu         sync.Mutex
	terminated bool
}

func (h *forkHandle) Mailbox(runner int) *mailbox.Mailbox {
	return mailbox.At(h.seg.data, runner)
}

func (h *forkHandle) ExecuteRunner(runner int) (*mailbox.Mailbox, error) {
	if !h.IsAlive() {
		return nil, ProcessDeadError
	}
	mb := h.Mailbox(runner)
	mb.ClearPosted()
	mb.Release()
	if err := mb.AwaitPosted(h.timeout); err != nil {
		return nil, Execf(err, "runner %v failed to post", runner)
	}
	return mb, nil
}

func (h *forkHandle) IsAlive() bool {
	h.mu.Lock()
	terminated := h.terminated
	h.mu.Unlock()
	if terminated {
		return false
	}
	p, err := psprocess.NewProcess(int32(h.cmd.Process.Pid))
	if err != nil {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}

func (h *forkHandle) Terminate() error {
	h.mu.Lock()
	if h.terminated {
		h.mu.Unlock()
		return nil
	}
	h.terminated = true
	h.mu.Unlock()

	h.cmd.Process.Kill()
	// The exit status of a killed child is not an error of the checker.
	h.wait.Wait()
	return h.seg.close()
}
