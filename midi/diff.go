package midi

import (
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/util"
)

// Held is the set of notes currently sounding.
type Held = map[uint8]bool

// Apply computes the legato transition from held to target. Notes in both sets
// produce no events; on and off are ascending and together have exactly the
// size of the symmetric difference.
func Apply(held Held, target model.Notes) (on, off model.Notes, next Held) {
	next = make(Held, len(target))
	for _, n := range target {
		next[n] = true
	}
	for _, n := range util.SortedKeys(next) {
		if !held[n] {
			on = append(on, n)
		}
	}
	for _, n := range util.SortedKeys(held) {
		if !next[n] {
			off = append(off, n)
		}
	}
	return on, off, next
}
