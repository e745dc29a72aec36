package config

import (
	"fmt"
	"os"
	"strconv"
)

// The environment contract shared with the child and the record-mode
// subprocess.
const (
	EnvMaxDepthPerThread    = "MCMINI_MAX_DEPTH_PER_THREAD"
	EnvDebugAtTraceId       = "MCMINI_DEBUG_AT_TRACE_ID"
	EnvPrintAtTraceId       = "MCMINI_PRINT_AT_TRACE_ID"
	EnvFirstDeadlock        = "MCMINI_FIRST_DEADLOCK"
	EnvCheckForwardProgress = "MCMINI_CHECK_FORWARD_PROGRESS"
	EnvLongTest             = "MCMINI_LONG_TEST"
	EnvQuiet                = "MCMINI_QUIET"
	EnvVerbose              = "MCMINI_VERBOSE"
	EnvRecord               = "MCMINI_RECORD"
)

// The default and long-test trace budgets. A long test multiplies the
// budget rather than removing it so that a runaway target still terminates.
const (
	DefaultMaxTraces   = 10000
	longTestMultiplier = 100
)

// An option used to configure the checker. Options are plain values with a
// marker method; the checker consumes them with a type switch.
type CheckOption interface {
	CheckOpt()
}

// Read the MCMINI_* environment into the corresponding options. Flags given
// on the command line are appended after these and therefore win.
func FromEnv() []CheckOption {
	opts := []CheckOption{}
	if n, ok := envInt(EnvMaxDepthPerThread); ok {
		opts = append(opts, MaxDepthOption{MaxDepth: n})
	}
	if n, ok := envInt(EnvPrintAtTraceId); ok {
		opts = append(opts, PrintAtTraceIdOption{TraceId: n})
	}
	if n, ok := envInt(EnvDebugAtTraceId); ok {
		opts = append(opts, DebugAtTraceIdOption{TraceId: n})
	}
	if envSet(EnvFirstDeadlock) {
		opts = append(opts, FirstDeadlockOption{})
	}
	if envSet(EnvCheckForwardProgress) {
		opts = append(opts, ForwardProgressOption{})
	}
	if envSet(EnvLongTest) {
		opts = append(opts, MaxTracesOption{MaxTraces: DefaultMaxTraces * longTestMultiplier})
	}
	if envSet(EnvQuiet) {
		opts = append(opts, QuietOption{})
	}
	if envSet(EnvVerbose) {
		opts = append(opts, VerboseOption{})
	}
	return opts
}

// The environment passed to every child so that the trampoline sees the
// same configuration the checker runs under.
func ChildEnv(maxDepth, printAt, debugAt int, firstDeadlock, quiet, verbose bool) []string {
	env := []string{}
	if maxDepth > 0 {
		env = append(env, fmt.Sprintf("%v=%v", EnvMaxDepthPerThread, maxDepth))
	}
	if printAt >= 0 {
		env = append(env, fmt.Sprintf("%v=%v", EnvPrintAtTraceId, printAt))
	}
	if debugAt >= 0 {
		env = append(env, fmt.Sprintf("%v=%v", EnvDebugAtTraceId, debugAt))
	}
	if firstDeadlock {
		env = append(env, EnvFirstDeadlock+"=1")
	}
	if quiet {
		env = append(env, EnvQuiet+"=1")
	}
	if verbose {
		env = append(env, EnvVerbose+"=1")
	}
	return env
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envSet(name string) bool {
	v := os.Getenv(name)
	return v != "" && v != "0"
}
