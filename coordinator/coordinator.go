package coordinator

import (
	"fmt"

	"mcmini/mailbox"
	"mcmini/model"
	"mcmini/process"
)

// The coordinator binds the abstract program model to one concrete child
// process. It executes one scheduled runner at a time, translating the
// child's mailbox postings into model transitions through the runtime
// transition registry and the address map.
type Coordinator struct {
	program   *model.Program
	registry  *Registry
	source    process.Source
	handle    process.Handle
	addresses *AddressMap
}

// Create a coordinator over the given registry and process source. No
// child exists until the first Restart.
func New(registry *Registry, source process.Source) *Coordinator {
	c := &Coordinator{
		program:  model.InitialProgram(),
		registry: registry,
		source:   source,
	}
	c.addresses = newAddressMap(c)
	return c
}

// The live program model. Replaced wholesale by Restart; callers must not
// retain the pointer across restarts.
func (c *Coordinator) Program() *model.Program {
	return c.program
}

// Destroy the current child, request a fresh one from the process source
// and reset the model to the initial state. The address map is retained:
// remote addresses are stable across re-creations of the same image.
func (c *Coordinator) Restart() error {
	if c.handle != nil {
		c.handle.Terminate()
		c.handle = nil
	}
	c.program = model.InitialProgram()

	h, err := c.source.ForceNewProcess()
	if err != nil {
		return err
	}
	c.handle = h

	// The main thread has already posted its start; bind its remote
	// address to runner 0.
	addr := process.RemoteAddress(h.Mailbox(0).Word(0))
	if addr == 0 {
		h.Terminate()
		c.handle = nil
		return process.Execf(nil, "the child posted no main thread handle")
	}
	c.addresses.ObserveRunner(addr, model.NewMainThread(), nil)
	return nil
}

// Release the scheduled runner, await its next posting, and advance the
// model: the runner's previous pending transition is executed and the
// posting becomes its new pending transition.
func (c *Coordinator) ExecuteRunner(rid model.RunnerId) error {
	if c.handle == nil {
		return process.Execf(nil, "failed to execute runner %v: the process is not alive", rid)
	}
	mb, err := c.handle.ExecuteRunner(int(rid))
	if err != nil {
		return process.Execf(err, "failed to execute runner %v", rid)
	}

	var next *model.Transition
	if tag := mb.Tag(); tag != mailbox.TagRunnerExited {
		cb := c.registry.CallbackFor(tag)
		if cb == nil {
			return process.Execf(nil,
				"execution resulted in a runner scheduled to execute the transition type with tag %v, "+
					"but this tag was not registered before model checking began", tag)
		}
		next, err = cb(rid, mb, c.addresses)
		if err != nil {
			return err
		}
		if next == nil {
			return process.Execf(nil, "failed to translate the data written into the mailbox of runner %v", rid)
		}
	}
	return c.program.ModelExecutingRunner(rid, next)
}

// Kill the current child, if any, and release its resources.
func (c *Coordinator) Terminate() {
	if c.handle != nil {
		c.handle.Terminate()
		c.handle = nil
	}
}

// A human-readable description of the coordinator's view, for diagnostics.
func (c *Coordinator) String() string {
	return fmt.Sprintf("coordinator{trace length %v, %v runners}",
		c.program.TraceLen(), len(c.program.Runners()))
}
