package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"

	"github.com/kballard/go-shellquote"

	"mcmini"
	"mcmini/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mcmini", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		maxDepth      int
		firstDeadlock bool
		printAt       int
		record        int
		trampoline    string
	)
	fs.IntVar(&maxDepth, "max-depth-per-thread", 0, "per-thread transition cap (0 is unbounded)")
	fs.IntVar(&maxDepth, "m", 0, "shorthand for -max-depth-per-thread")
	fs.BoolVar(&firstDeadlock, "first-deadlock", false, "stop after the first deadlock found")
	fs.BoolVar(&firstDeadlock, "first", false, "shorthand for -first-deadlock")
	fs.BoolVar(&firstDeadlock, "f", false, "shorthand for -first-deadlock")
	fs.IntVar(&printAt, "print-at-traceId", -1, "emit diagnostics when this trace id is explored")
	fs.IntVar(&printAt, "p", -1, "shorthand for -print-at-traceId")
	fs.IntVar(&record, "record", 0, "skip checking; record the target with this checkpoint interval in seconds")
	fs.IntVar(&record, "r", 0, "shorthand for -record")
	fs.StringVar(&trampoline, "trampoline", "", "path of the trampoline library preloaded into the target")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mcmini [options] <target> [target args...]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		// The flag package has already printed the diagnostic and, for
		// -h, the usage text.
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	target := fs.Arg(0)
	argv := fs.Args()[1:]
	if _, err := os.Stat(target); err != nil {
		fmt.Fprintf(os.Stderr, "mcmini: cannot check %v: %v\n", target, err)
		return 1
	}

	if record > 0 {
		return recordTarget(target, argv, record)
	}

	opts := config.FromEnv()
	if maxDepth > 0 {
		opts = append(opts, config.MaxDepthOption{MaxDepth: maxDepth})
	}
	if firstDeadlock {
		opts = append(opts, config.FirstDeadlockOption{})
	}
	if printAt >= 0 {
		opts = append(opts, config.PrintAtTraceIdOption{TraceId: printAt})
	}
	if trampoline != "" {
		opts = append(opts, config.TrampolineOption{Path: trampoline})
	}

	resp, err := mcmini.PrepareCheck(target, argv, opts...).Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "mcmini: %v\n", err)
		return 1
	}
	if ok, summary := resp.Response(); !ok {
		// A broken predicate is the checker's finding, not its failure.
		fmt.Fprint(os.Stderr, summary)
	}
	return 0
}

// Relaunch the target under the checkpointing supervisor instead of model
// checking it. No process source in this repository resumes a recorded
// session.
func recordTarget(target string, argv []string, interval int) int {
	cmdline := append([]string{"dmtcp_launch", "-i", strconv.Itoa(interval), target}, argv...)
	log.Printf("mcmini: recording %v", shellquote.Join(cmdline...))

	cmd := exec.Command(cmdline[0], cmdline[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), config.EnvRecord+"=1")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "mcmini: %v\n", err)
		return 1
	}
	return 0
}
