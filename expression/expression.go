// Package expression holds the stateless spread/distance mappings used for
// velocity and tempo. Nothing here keeps memory between ticks.
package expression

import (
	"math"

	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/util"
)

// Spread is the mean fingertip-to-wrist distance in the image plane, a simple
// hand-openness metric.
func Spread(h *model.Hand) float64 {
	wrist := h.Landmarks[constants.Wrist]
	var d float64
	for _, i := range constants.FingerTips {
		tip := h.Landmarks[i]
		d += math.Hypot(tip.X-wrist.X, tip.Y-wrist.Y)
	}
	return d / float64(len(constants.FingerTips))
}

// Centroid is the mean (x, y) over all landmarks.
func Centroid(h *model.Hand) (x, y float64) {
	for _, lm := range h.Landmarks {
		x += lm.X
		y += lm.Y
	}
	n := float64(len(h.Landmarks))
	return x / n, y / n
}

func mapBand(v float64, b config.Band) float64 {
	out := util.Lerp(v, b.InLow, b.InHigh, b.OutLow, b.OutHigh)
	if math.IsNaN(out) {
		return b.OutLow
	}
	return util.Clamp(out, b.OutLow, b.OutHigh)
}

// Velocity maps the primary hand's spread onto the velocity band, 80 without a
// primary hand. The result is always within 1..127.
func Velocity(obs model.Observation, band config.Band) int {
	h := obs.Primary()
	if h == nil {
		return constants.DefaultVelocity
	}
	v := int(mapBand(Spread(h), band))
	return util.Clamp(v, 1, 127)
}

// Tempo maps the distance between the two hand centroids onto BPM, 110 unless
// both hands are present.
func Tempo(obs model.Observation, band config.Band) int {
	p, s := obs.Primary(), obs.Secondary()
	if p == nil || s == nil {
		return constants.DefaultTempo
	}
	px, py := Centroid(p)
	sx, sy := Centroid(s)
	return int(mapBand(math.Hypot(px-sx, py-sy), band))
}
