package mcmini

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcmini/checking"
	"mcmini/config"
	"mcmini/coordinator"
	"mcmini/explorer"
	"mcmini/process"
)

// Prepare a model checking session for the given target executable.
//
// See the config package for the full set of options. Default values are
// used where no option is provided: an unbounded per-runner depth, the
// default trace budget, and the full search (no early stop).
func PrepareCheck(target string, argv []string, opts ...config.CheckOption) Check {
	c := Check{
		target:    target,
		argv:      argv,
		maxTraces: config.DefaultMaxTraces,
		printAt:   -1,
		debugAt:   -1,
		out:       os.Stdout,
		errOut:    os.Stderr,
	}
	for _, opt := range opts {
		switch t := opt.(type) {
		case config.MaxDepthOption:
			c.maxDepth = t.MaxDepth
		case config.MaxTracesOption:
			c.maxTraces = t.MaxTraces
		case config.FirstDeadlockOption:
			c.firstDeadlock = true
		case config.PrintAtTraceIdOption:
			c.printAt = t.TraceId
		case config.DebugAtTraceIdOption:
			c.debugAt = t.TraceId
		case config.QuietOption:
			c.quiet = true
		case config.VerboseOption:
			c.verbose = true
		case config.ForwardProgressOption:
			c.forwardProgress = true
		case config.ExportOption:
			c.export = append(c.export, t.W)
		case config.TimeoutOption:
			c.timeout = t.Timeout
		case config.TrampolineOption:
			c.trampoline = t.Path
		}
	}
	return c
}

// A configured model checking session. A session can be run once; create a
// new one for every search.
type Check struct {
	target string
	argv   []string

	maxDepth        int
	maxTraces       int
	firstDeadlock   bool
	printAt         int
	debugAt         int
	quiet           bool
	verbose         bool
	forwardProgress bool
	timeout         time.Duration
	trampoline      string
	export          []io.Writer

	out    io.Writer
	errOut io.Writer
}

// Run the search against the target. The child process of the moment is
// torn down on every exit path, including interruption and search errors.
//
// The returned response aggregates the explored traces; the error reports
// checker-side execution failures only. Deadlocks and undefined behavior in
// the target are results, not errors.
func (c Check) Run(ctx context.Context) (checking.CheckerResponse, error) {
	source := &process.ForkSource{
		Target:      c.target,
		Argv:        c.argv,
		Trampoline:  c.trampoline,
		PostTimeout: c.timeout,
		Verbose:     c.verbose,
		Env: config.ChildEnv(c.maxDepth, c.printAt, c.debugAt,
			c.firstDeadlock, c.quiet, c.verbose),
	}
	coord := coordinator.New(coordinator.DefaultRegistry(), source)
	defer coord.Terminate()

	predicates := []checking.Predicate{
		checking.DeadlockFree(),
		checking.NoUndefinedBehavior(),
	}
	if c.forwardProgress {
		predicates = append(predicates, checking.ForwardProgress())
	}
	collector := checking.NewCollector(predicates...)
	printer := NewPrinter(c.out, c.errOut, c.quiet, c.printAt)
	space := NewStateSpace()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	search := explorer.New(coord, multiReporter{printer, collector, space},
		c.maxDepth, c.maxTraces, c.firstDeadlock)
	err := search.Run(ctx)
	if err == nil {
		printer.Finish()
		for _, w := range c.export {
			space.Export(w)
		}
	}
	return collector.Response(), err
}

// Fans one trace report out to the printer, the collector and the schedule
// tree.
type multiReporter []explorer.Reporter

func (m multiReporter) TraceCompleted(rec checking.TraceRecord) {
	for _, r := range m {
		r.TraceCompleted(rec)
	}
}
