package model

import "github.com/jsphweid/handcomposer/constants"

type Side string

const (
	Primary   Side = "primary"
	Secondary Side = "secondary"
)

type Landmark struct {
	X, Y, Z float64
}

// Hand is one tracked hand. Absent hands are omitted, never zeroed.
type Hand struct {
	Side      Side
	Landmarks [constants.NumLandmarks]Landmark
}

// Observation holds at most one hand per side, primary first.
type Observation struct {
	Hands []Hand
}

func (o Observation) hand(side Side) *Hand {
	for i := range o.Hands {
		if o.Hands[i].Side == side {
			return &o.Hands[i]
		}
	}
	return nil
}

func (o Observation) Primary() *Hand {
	return o.hand(Primary)
}

func (o Observation) Secondary() *Hand {
	return o.hand(Secondary)
}

func (o Observation) Empty() bool {
	return len(o.Hands) == 0
}

// Frame is the wire form of one perception frame:
//
//	{"t_ms": 1234, "hands": [{"label": "right", "landmarks": [[x,y,z], ...]}]}
type Frame struct {
	TimeMs int64       `json:"t_ms"`
	Hands  []HandFrame `json:"hands"`
}

type HandFrame struct {
	Label     string      `json:"label"`
	Landmarks [][]float64 `json:"landmarks"`
}
