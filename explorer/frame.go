package explorer

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"mcmini/model"
)

// One exploration frame per position of the current trace. The frame
// describes the branching point just before its step: which runners were
// enabled there, which one was taken, and which alternatives still need to
// be tried.
type frame struct {
	// The runner executed from this frame's pre-state and the transition
	// it executed.
	chosen model.RunnerId
	taken  model.Transition

	// Runners enabled in the pre-state. The prefix leading here never
	// changes, so the set stays valid across replays.
	enabled []model.RunnerId

	backtrack map[model.RunnerId]bool
	done      map[model.RunnerId]bool
}

func newFrame(chosen model.RunnerId, taken model.Transition, enabled []model.RunnerId) *frame {
	return &frame{
		chosen:    chosen,
		taken:     taken,
		enabled:   enabled,
		backtrack: map[model.RunnerId]bool{chosen: true},
		done:      map[model.RunnerId]bool{chosen: true},
	}
}

// The runners that still need to be tried as this frame's choice, in
// ascending id order.
func (f *frame) unexplored() []model.RunnerId {
	out := []model.RunnerId{}
	for _, rid := range sortedKeys(f.backtrack) {
		if !f.done[rid] {
			out = append(out, rid)
		}
	}
	return out
}

func (f *frame) wasEnabled(rid model.RunnerId) bool {
	return slices.Contains(f.enabled, rid)
}

func sortedKeys(set map[model.RunnerId]bool) []model.RunnerId {
	out := maps.Keys(set)
	slices.Sort(out)
	return out
}
