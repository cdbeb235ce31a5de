package chord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/model"
)

// semitones above the root, in emission order
var intervals = map[model.Quality][]int{
	model.Major:   {0, 4, 7},
	model.Minor:   {0, 3, 7},
	model.Seventh: {0, 4, 7, 10},
	model.Sus:     {0, 5, 7},
}

// Intervals falls back to the suspended shape for labels it does not know.
func Intervals(q model.Quality) []int {
	if iv, ok := intervals[q]; ok {
		return iv
	}
	return intervals[model.Sus]
}

// Build returns root + interval for each interval of the quality, in table order.
func Build(root int, q model.Quality) model.Notes {
	iv := Intervals(q)
	notes := make(model.Notes, 0, len(iv))
	for _, i := range iv {
		notes = append(notes, uint8(root+i))
	}
	return notes
}

// Voice folds every note into [low, high] by octaves and sorts ascending. If
// the folded span is wider than an octave the lowest note is raised once; this
// is a single compaction pass, not a minimal-span search.
func Voice(notes model.Notes, low, high int) model.Notes {
	voiced := make([]int, 0, len(notes))
	for _, n := range notes {
		v := int(n)
		for v < low {
			v += 12
		}
		for v > high {
			v -= 12
		}
		voiced = append(voiced, v)
	}
	sort.Ints(voiced)

	if len(voiced) > 1 && voiced[len(voiced)-1]-voiced[0] > 12 {
		voiced[0] += 12
		sort.Ints(voiced)
	}

	res := make(model.Notes, len(voiced))
	for i, v := range voiced {
		res[i] = uint8(v)
	}
	return res
}

func NoteName(n uint8) string {
	return fmt.Sprintf("%s%d", constants.NoteNames[n%12], n/12)
}

// Label joins the distinct note names, e.g. "C5+E5+G5"; "N.C." for no chord.
func Label(notes model.Notes) string {
	if len(notes) == 0 {
		return "N.C."
	}
	seen := make(map[string]bool)
	var names []string
	for _, n := range notes {
		name := NoteName(n)
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}

// Key is the ascending note numbers joined by "-", e.g. "60-64-67".
func Key(notes model.Notes) string {
	sorted := append(model.Notes(nil), notes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	parts := make([]string, len(sorted))
	for i, note := range sorted {
		parts[i] = fmt.Sprintf("%v", note)
	}
	return strings.Join(parts, "-")
}
