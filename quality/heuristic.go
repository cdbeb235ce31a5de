package quality

import (
	"math"

	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/expression"
	"github.com/jsphweid/handcomposer/model"
)

// Heuristic buckets hand openness into min / maj / 7.
type Heuristic struct {
	Low  float64
	High float64
}

func NewHeuristic(cfg config.Quality) Heuristic {
	return Heuristic{Low: cfg.LowThreshold, High: cfg.HighThreshold}
}

func (h Heuristic) Classify(hand *model.Hand) model.Quality {
	s := expression.Spread(hand)
	switch {
	case math.IsNaN(s):
		return model.Major
	case s < h.Low:
		return model.Minor
	case s < h.High:
		return model.Major
	default:
		return model.Seventh
	}
}
