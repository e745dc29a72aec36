package mcmini

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"mcmini/checking"
)

// Writes the per-trace report for every explored trace: the executed
// sequence followed by the next operation each live runner had announced.
// Undefined behavior goes to the error writer. When a print-at trace id is
// configured, that trace's full record is dumped for diagnosis.
type Printer struct {
	out     io.Writer
	errOut  io.Writer
	quiet   bool
	printAt int
}

func NewPrinter(out, errOut io.Writer, quiet bool, printAt int) *Printer {
	return &Printer{out: out, errOut: errOut, quiet: quiet, printAt: printAt}
}

func (p *Printer) TraceCompleted(rec checking.TraceRecord) {
	if rec.Outcome == checking.OutcomeUndefinedBehavior {
		fmt.Fprintf(p.errOut, "UNDEFINED BEHAVIOR: %v\n", rec.Reason)
	}
	if !p.quiet {
		fmt.Fprintf(p.out, "TRACE %v\n", rec.Id)
		for _, t := range rec.Trace {
			fmt.Fprintf(p.out, "thread %v: %v\n", t.Executor, t)
		}
		fmt.Fprintln(p.out, "NEXT THREAD OPERATIONS")
		for _, rid := range rec.PendingRunners() {
			fmt.Fprintf(p.out, "thread %v: %v\n", rid, rec.Pending[rid])
		}
		if rec.Outcome == checking.OutcomeDeadlock {
			fmt.Fprintln(p.out, "*** DEADLOCK DETECTED ***")
		}
		fmt.Fprintln(p.out)
	}
	if rec.Id == p.printAt {
		spew.Fdump(p.errOut, rec)
	}
}

// The final line of a successful search.
func (p *Printer) Finish() {
	fmt.Fprintln(p.out, "Model checking completed!")
}
