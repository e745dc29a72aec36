package config

import (
	"io"
	"time"
)

// Caps the number of transitions a single runner may execute within one
// explored trace. Runners that would exceed it are treated as terminal for
// that trace. Default is unbounded.
type MaxDepthOption struct {
	MaxDepth int
}

func (o MaxDepthOption) CheckOpt() {}

// Caps the number of complete traces the search explores.
type MaxTracesOption struct {
	MaxTraces int
}

func (o MaxTracesOption) CheckOpt() {}

// Stop the search after the first deadlock has been reported.
type FirstDeadlockOption struct{}

func (o FirstDeadlockOption) CheckOpt() {}

// Emit diagnostic information when the trace with this id is reported.
type PrintAtTraceIdOption struct {
	TraceId int
}

func (o PrintAtTraceIdOption) CheckOpt() {}

// Hold the given trace id in the child environment so that the trampoline
// can break into a debugger when it is reached.
type DebugAtTraceIdOption struct {
	TraceId int
}

func (o DebugAtTraceIdOption) CheckOpt() {}

// Suppress the per-trace output; only the final summary is printed.
type QuietOption struct{}

func (o QuietOption) CheckOpt() {}

// Log checker internals (spawned commands, restarts) to stderr.
type VerboseOption struct{}

func (o VerboseOption) CheckOpt() {}

// Check that every runner still announcing operations at the end of a trace
// made progress during it.
type ForwardProgressOption struct{}

func (o ForwardProgressOption) CheckOpt() {}

// Configures an io.Writer the explored schedule tree is exported to when
// the search finishes.

// Can be applied multiple times to add multiple writers.
// Default value is no writers.
type ExportOption struct {
	W io.Writer
}

func (o ExportOption) CheckOpt() {}

// How long the coordinator waits for a released runner to post before the
// child is considered faulty.
type TimeoutOption struct {
	Timeout time.Duration
}

func (o TimeoutOption) CheckOpt() {}

// Path of the trampoline library preloaded into every child.
type TrampolineOption struct {
	Path string
}

func (o TrampolineOption) CheckOpt() {}
