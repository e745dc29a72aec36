package mcmini

import (
	"fmt"
	"io"

	"mcmini/checking"
	"mcmini/tracetree"
)

// Records every explored trace into the schedule tree so that the shape of
// the reduced state space can be exported after the search.
type StateSpace struct {
	tree *tracetree.Tree
}

func NewStateSpace() *StateSpace {
	return &StateSpace{tree: tracetree.New()}
}

func (s *StateSpace) TraceCompleted(rec checking.TraceRecord) {
	labels := make([]string, 0, len(rec.Trace))
	for _, t := range rec.Trace {
		labels = append(labels, fmt.Sprintf("thread %v: %v", t.Executor, t))
	}
	s.tree.Insert(labels)
}

// Number of traces recorded.
func (s *StateSpace) Traces() int {
	return s.tree.Runs()
}

// Number of divergences between explored traces, as counted by the
// schedule tree.
func (s *StateSpace) Branches() int {
	return s.tree.Branches()
}

// Write the schedule tree in Newick notation.
func (s *StateSpace) Export(w io.Writer) {
	fmt.Fprintln(w, s.tree.Newick())
}
