package engine

import (
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

// Metrics live in their own registry so several engines (tests, replays) never
// share counters.
type Metrics struct {
	Registry    gometrics.Registry
	Latency     gometrics.Timer
	Ticks       gometrics.Counter
	StaleTicks  gometrics.Counter
	RootCommits gometrics.Counter
	NotesOn     gometrics.Counter
	NotesOff    gometrics.Counter
	SendErrors  gometrics.Counter
}

func NewMetrics() *Metrics {
	r := gometrics.NewRegistry()
	return &Metrics{
		Registry:    r,
		Latency:     gometrics.NewRegisteredTimer("tick.latency", r),
		Ticks:       gometrics.NewRegisteredCounter("tick.total", r),
		StaleTicks:  gometrics.NewRegisteredCounter("tick.stale", r),
		RootCommits: gometrics.NewRegisteredCounter("root.commits", r),
		NotesOn:     gometrics.NewRegisteredCounter("notes.on", r),
		NotesOff:    gometrics.NewRegisteredCounter("notes.off", r),
		SendErrors:  gometrics.NewRegisteredCounter("midi.errors", r),
	}
}

type Summary struct {
	Ticks       int64
	StaleTicks  int64
	RootCommits int64
	NotesOn     int64
	NotesOff    int64
	SendErrors  int64
	MeanLatency time.Duration
	P99Latency  time.Duration
	MaxLatency  time.Duration
}

func (m *Metrics) Summary() Summary {
	snap := m.Latency.Snapshot()
	return Summary{
		Ticks:       m.Ticks.Count(),
		StaleTicks:  m.StaleTicks.Count(),
		RootCommits: m.RootCommits.Count(),
		NotesOn:     m.NotesOn.Count(),
		NotesOff:    m.NotesOff.Count(),
		SendErrors:  m.SendErrors.Count(),
		MeanLatency: time.Duration(snap.Mean()),
		P99Latency:  time.Duration(snap.Percentile(0.99)),
		MaxLatency:  time.Duration(snap.Max()),
	}
}
