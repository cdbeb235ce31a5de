package model

import "fmt"

// Notes is a sequence of MIDI note numbers.
type Notes = []uint8

type Quality string

const (
	Major   Quality = "maj"
	Minor   Quality = "min"
	Seventh Quality = "7"
	Sus     Quality = "sus"
)

var Qualities = []Quality{Major, Minor, Seventh, Sus}

// ParseQuality accepts only the four known labels.
func ParseQuality(s string) (Quality, error) {
	for _, q := range Qualities {
		if string(q) == s {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown chord quality %q", s)
}
