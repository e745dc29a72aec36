package mcmini

import (
	"bytes"
	"strings"
	"testing"

	"mcmini/checking"
	"mcmini/model"
)

func deadlockRecord() checking.TraceRecord {
	return checking.TraceRecord{
		Id:      3,
		Outcome: checking.OutcomeDeadlock,
		Trace: []model.Transition{
			{Executor: 0, Type: model.ThreadStart, Object: 0, Aux: model.InvalidId},
			{Executor: 1, Type: model.MutexLock, Object: 2, Aux: model.InvalidId},
		},
		Pending: map[model.RunnerId]model.Transition{
			1: {Executor: 1, Type: model.MutexLock, Object: 3, Aux: model.InvalidId},
			0: {Executor: 0, Type: model.ThreadJoin, Object: 1, Aux: model.InvalidId},
		},
	}
}

func TestPrinterTraceFormat(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	p := NewPrinter(out, errOut, false, -1)

	p.TraceCompleted(deadlockRecord())
	p.Finish()

	expected := []string{
		"TRACE 3",
		"thread 0: thread_start",
		"thread 1: pthread_mutex_lock(2)",
		"NEXT THREAD OPERATIONS",
		"thread 0: thread_join(1)",
		"thread 1: pthread_mutex_lock(3)",
		"*** DEADLOCK DETECTED ***",
		"",
		"Model checking completed!",
	}
	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(got) != len(expected) {
		t.Fatalf("Got %v lines. Expected %v:\n%v", len(got), len(expected), out.String())
	}
	for i, line := range expected {
		if got[i] != line {
			t.Errorf("Line %v: Got %q. Expected %q", i, got[i], line)
		}
	}
	if errOut.Len() != 0 {
		t.Errorf("Nothing should be written to stderr. Got %q", errOut.String())
	}
}

func TestPrinterUndefinedBehavior(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	p := NewPrinter(out, errOut, false, -1)

	p.TraceCompleted(checking.TraceRecord{
		Id:      0,
		Outcome: checking.OutcomeUndefinedBehavior,
		Reason:  "Attempting to lock an uninitialized mutex",
	})

	if got := errOut.String(); got != "UNDEFINED BEHAVIOR: Attempting to lock an uninitialized mutex\n" {
		t.Errorf("Got %q on stderr", got)
	}
}

func TestPrinterQuietSuppressesTraces(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	p := NewPrinter(out, errOut, true, -1)

	p.TraceCompleted(deadlockRecord())
	if out.Len() != 0 {
		t.Errorf("Quiet mode should not print traces. Got %q", out.String())
	}

	p.Finish()
	if got := out.String(); got != "Model checking completed!\n" {
		t.Errorf("The final line is printed even in quiet mode. Got %q", got)
	}
}

func TestPrinterDumpAtTraceId(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	p := NewPrinter(out, errOut, true, 3)

	p.TraceCompleted(deadlockRecord())
	if !strings.Contains(errOut.String(), "TraceRecord") {
		t.Errorf("The configured trace id should be dumped. Got %q", errOut.String())
	}
}

func TestStateSpaceRecordsTraces(t *testing.T) {
	s := NewStateSpace()
	rec := deadlockRecord()
	s.TraceCompleted(rec)
	other := rec
	other.Trace = rec.Trace[:1]
	s.TraceCompleted(other)

	if got := s.Traces(); got != 2 {
		t.Errorf("Got %v traces. Expected 2", got)
	}
	buf := &bytes.Buffer{}
	s.Export(buf)
	if !strings.Contains(buf.String(), "thread 0: thread_start") {
		t.Errorf("The export should contain the shared first step. Got %q", buf.String())
	}
}

func TestPrepareCheckDefaults(t *testing.T) {
	c := PrepareCheck("/bin/true", nil)
	if c.maxDepth != 0 || c.firstDeadlock || c.quiet {
		t.Errorf("Unexpected defaults: %+v", c)
	}
	if c.printAt != -1 || c.debugAt != -1 {
		t.Errorf("No trace id should be configured by default: %+v", c)
	}
}
