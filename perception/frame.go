// Package perception turns tracker frames into observations for the mapping
// loop. It is the only place where hand records are validated.
package perception

import (
	"strings"

	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/model"
)

// ParseSide maps tracker labels onto sides: right is primary, left is secondary.
func ParseSide(label string) (model.Side, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "right", "primary":
		return model.Primary, true
	case "left", "secondary":
		return model.Secondary, true
	}
	return "", false
}

func toHand(side model.Side, points [][]float64) (model.Hand, bool) {
	h := model.Hand{Side: side}
	if len(points) != constants.NumLandmarks {
		return h, false
	}
	for i, p := range points {
		if len(p) < 2 || len(p) > 3 {
			return h, false
		}
		h.Landmarks[i].X = p[0]
		h.Landmarks[i].Y = p[1]
		if len(p) == 3 {
			h.Landmarks[i].Z = p[2]
		}
	}
	return h, true
}

// Normalize keeps the first well-formed hand of each side, primary first.
// Hands with an unknown label or a landmark count other than 21 are dropped.
func Normalize(f model.Frame) model.Observation {
	var primary, secondary *model.Hand
	for _, hf := range f.Hands {
		side, ok := ParseSide(hf.Label)
		if !ok {
			continue
		}
		h, ok := toHand(side, hf.Landmarks)
		if !ok {
			continue
		}
		if side == model.Primary && primary == nil {
			primary = &h
		} else if side == model.Secondary && secondary == nil {
			secondary = &h
		}
	}

	var obs model.Observation
	if primary != nil {
		obs.Hands = append(obs.Hands, *primary)
	}
	if secondary != nil {
		obs.Hands = append(obs.Hands, *secondary)
	}
	return obs
}
