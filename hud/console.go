// Package hud prints per-tick telemetry for the performer. Publishing never
// blocks the mapping loop.
package hud

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/handcomposer/model"
)

// Console repaints a status line once the telemetry has been stable for the
// settle period, so flickering chords don't scroll the terminal. A line that
// keeps changing is still painted at least every maxWait.
type Console struct {
	mu        sync.Mutex
	w         io.Writer
	last      model.Telemetry
	painted   string
	paintedAt time.Time
	maxWait   time.Duration
	repaint   func(func())
}

func NewConsole(w io.Writer, settle time.Duration) *Console {
	return &Console{
		w:         w,
		paintedAt: time.Now(),
		maxWait:   4 * settle,
		repaint:   debounce.New(settle),
	}
}

// stateKey is everything shown except latency, which changes every tick.
func stateKey(t model.Telemetry) string {
	return fmt.Sprintf("%s|%d|%d|%s", t.Chord, t.Tempo, t.Velocity, t.Status)
}

func (c *Console) Publish(t model.Telemetry) {
	c.mu.Lock()
	c.last = t
	changed := stateKey(t) != c.painted
	overdue := changed && time.Since(c.paintedAt) >= c.maxWait
	c.mu.Unlock()
	switch {
	case overdue:
		c.paint()
	case changed:
		c.repaint(c.paint)
	}
}

func (c *Console) paint() {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := stateKey(c.last)
	if key == c.painted {
		return
	}
	c.painted = key
	c.paintedAt = time.Now()
	fmt.Fprintln(c.w, Format(c.last))
}

// Format renders the HUD line, e.g.
//
//	Chord: C5+E5+G5 | BPM: 110 | Velocity: 80 | 0.42ms
func Format(t model.Telemetry) string {
	line := fmt.Sprintf("Chord: %s | BPM: %d | Velocity: %d | %.2fms",
		t.Chord, t.Tempo, t.Velocity, float64(t.Latency.Microseconds())/1000)
	if t.Status != "" {
		line += " | " + t.Status
	}
	return line
}

// Discard is a presenter that drops everything.
type Discard struct{}

func (Discard) Publish(model.Telemetry) {}
