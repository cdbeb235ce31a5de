// Package pitch turns a noisy vertical hand position into a stable MIDI root.
package pitch

import (
	"log/slog"
	"math"
	"time"

	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/constants"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/util"
)

// State is owned by a single Filter and only changes inside Update.
type State struct {
	EMA         float64
	HasEMA      bool
	Committed   int
	CommittedAt time.Time
	HasCommit   bool
}

type Filter struct {
	cfg   config.Pitch
	state State
	log   *slog.Logger
}

func NewFilter(cfg config.Pitch, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.Default()
	}
	return &Filter{
		cfg:   cfg,
		state: State{Committed: util.Clamp(constants.DefaultRoot, cfg.Low, cfg.High)},
		log:   log,
	}
}

func (f *Filter) State() State {
	return f.state
}

func (f *Filter) Committed() int {
	return f.state.Committed
}

// RootSignal is the mean y of the primary hand, if there is one.
func RootSignal(obs model.Observation) (float64, bool) {
	h := obs.Primary()
	if h == nil {
		return 0, false
	}
	var sum float64
	for _, lm := range h.Landmarks {
		sum += lm.Y
	}
	return sum / float64(len(h.Landmarks)), true
}

// Update feeds one vertical sample and returns the committed root. When ok is
// false (or y is not a number) the state is left untouched.
//
// The order deadband, debounce, slew is fixed: a candidate inside the deadband
// never consumes the debounce window.
func (f *Filter) Update(y float64, ok bool, now time.Time) int {
	if !ok || math.IsNaN(y) || math.IsInf(y, 0) {
		return f.state.Committed
	}

	low, high := float64(f.cfg.Low), float64(f.cfg.High)
	rootFloat := low + (1-util.Clamp(y, 0, 1))*(high-low)

	if f.state.HasEMA {
		f.state.EMA = f.cfg.Alpha*rootFloat + (1-f.cfg.Alpha)*f.state.EMA
	} else {
		f.state.EMA = rootFloat
		f.state.HasEMA = true
	}

	committed := f.state.Committed
	candidate := int(math.Round(f.state.EMA))
	delta := candidate - committed

	if math.Abs(float64(delta)) <= f.cfg.Deadband {
		return committed
	}
	if f.state.HasCommit && now.Sub(f.state.CommittedAt) < f.cfg.MinInterval() {
		return committed
	}

	step := util.Clamp(delta, -f.cfg.MaxStep, f.cfg.MaxStep)
	next := util.Clamp(committed+step, f.cfg.Low, f.cfg.High)

	f.state.Committed = next
	f.state.CommittedAt = now
	f.state.HasCommit = true
	f.log.Debug("pitch: root committed", "from", committed, "to", next, "candidate", candidate, "ema", f.state.EMA)
	return next
}
