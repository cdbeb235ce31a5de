// Package engine runs the per-tick mapping from hand observations to chord
// transitions on the MIDI output.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/handcomposer/chord"
	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/expression"
	"github.com/jsphweid/handcomposer/midi"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/perception"
	"github.com/jsphweid/handcomposer/pitch"
	"github.com/jsphweid/handcomposer/quality"
)

type Stage int

const (
	Idle Stage = iota
	Sampled
	Filtered
	Resolved
	Built
	Voiced
	Diffed
	Emitted
)

var stageNames = [...]string{"idle", "sampled", "filtered", "resolved", "built", "voiced", "diffed", "emitted"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Presenter receives a telemetry snapshot after every tick. It must not block.
type Presenter interface {
	Publish(model.Telemetry)
}

type TickResult struct {
	Root     int
	Quality  model.Quality
	Notes    model.Notes
	Velocity int
	Tempo    int
	On       model.Notes
	Off      model.Notes
	Fresh    bool
	Latency  time.Duration
	Stages   []Stage
	Err      error
}

type Engine struct {
	cfg       *config.Config
	filter    *pitch.Filter
	resolver  *quality.Resolver
	player    *midi.Player
	presenter Presenter
	metrics   *Metrics
	session   string
	last      model.Observation
	log       *slog.Logger
}

type Option func(*Engine)

func WithPresenter(p Presenter) Option {
	return func(e *Engine) { e.presenter = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithResolver(r *quality.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(cfg *config.Config, player *midi.Player, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		player:  player,
		session: uuid.NewString(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = quality.NewResolver(cfg, e.log)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	e.filter = pitch.NewFilter(cfg.Pitch, e.log)
	e.log = e.log.With("session", e.session)
	return e
}

func (e *Engine) Session() string {
	return e.session
}

func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

func (e *Engine) Player() *midi.Player {
	return e.player
}

// Tick runs one pass of the pipeline. A stale tick (fresh == false) feeds the
// root filter an absent sample and reuses the last observation everywhere else.
func (e *Engine) Tick(ctx context.Context, obs model.Observation, fresh bool, now time.Time) TickResult {
	start := time.Now()
	res := TickResult{Fresh: fresh, Stages: []Stage{Sampled}}

	if fresh {
		e.last = obs
	} else {
		e.metrics.StaleTicks.Inc(1)
	}
	current := e.last

	before := e.filter.Committed()
	var y float64
	var ok bool
	if fresh {
		y, ok = pitch.RootSignal(current)
	}
	res.Root = e.filter.Update(y, ok, now)
	if res.Root != before {
		e.metrics.RootCommits.Inc(1)
	}
	res.Stages = append(res.Stages, Filtered)

	// a cancelled run still finishes the tick it started
	res.Quality = e.resolver.Resolve(context.WithoutCancel(ctx), current.Secondary())
	res.Velocity = expression.Velocity(current, e.cfg.Velocity)
	res.Tempo = expression.Tempo(current, e.cfg.Tempo)
	res.Stages = append(res.Stages, Resolved)

	built := chord.Build(res.Root, res.Quality)
	res.Stages = append(res.Stages, Built)

	res.Notes = chord.Voice(built, e.cfg.Voicing.Low, e.cfg.Voicing.High)
	res.Stages = append(res.Stages, Voiced)

	on, off := e.player.Plan(res.Notes)
	res.Stages = append(res.Stages, Diffed)

	res.On, res.Off, res.Err = e.player.Emit(on, off, res.Velocity)
	if res.Err != nil && !errors.Is(res.Err, midi.ErrSinkDead) {
		e.metrics.SendErrors.Inc(1)
	}
	e.metrics.NotesOn.Inc(int64(len(res.On)))
	e.metrics.NotesOff.Inc(int64(len(res.Off)))
	res.Stages = append(res.Stages, Emitted)

	res.Latency = time.Since(start)
	e.metrics.Latency.Update(res.Latency)
	e.metrics.Ticks.Inc(1)

	if e.presenter != nil {
		e.presenter.Publish(e.telemetry(res, current))
	}
	return res
}

func (e *Engine) telemetry(res TickResult, obs model.Observation) model.Telemetry {
	status := ""
	switch {
	case e.player.Dead():
		status = "midi output muted"
	case e.resolver.Degraded():
		status = "classifier degraded, using heuristic"
	case obs.Empty():
		status = "no hands"
	}
	return model.Telemetry{
		Session:  e.session,
		Chord:    chord.Label(res.Notes),
		Root:     res.Root,
		Quality:  res.Quality,
		Notes:    res.Notes,
		Tempo:    res.Tempo,
		Velocity: res.Velocity,
		Latency:  res.Latency,
		Status:   status,
	}
}

// Stop releases every held note. Call it once the loop has returned.
func (e *Engine) Stop() model.Notes {
	released := e.player.Panic()
	e.log.Info("engine: stopped", "released", len(released), "ticks", e.metrics.Ticks.Count())
	return released
}

// Run ticks at the configured rate until ctx is cancelled. Cancellation is
// only observed between ticks, then all notes are released.
func (e *Engine) Run(ctx context.Context, src perception.Source) error {
	interval := e.cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("engine: running", "interval", interval, "classifier", e.resolver.Mode())
	for {
		select {
		case <-ctx.Done():
			e.Stop()
			return nil
		case now := <-ticker.C:
			obs, fresh := src.Next()
			res := e.Tick(ctx, obs, fresh, now)
			if len(res.On)+len(res.Off) > 0 {
				e.log.Debug("engine: tick", "chord", chord.Label(res.Notes), "velocity", res.Velocity,
					"tempo", res.Tempo, "latency", res.Latency)
			}
		}
	}
}
