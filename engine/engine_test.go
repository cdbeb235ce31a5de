package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/midi"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/perception"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	on, off []uint8
	allOff  int
	fail    bool
}

func (s *fakeSink) NoteOn(note, _ uint8) error {
	if s.fail {
		return errors.New("port gone")
	}
	s.on = append(s.on, note)
	return nil
}

func (s *fakeSink) NoteOff(note uint8) error {
	if s.fail {
		return errors.New("port gone")
	}
	s.off = append(s.off, note)
	return nil
}

func (s *fakeSink) AllNotesOff() error {
	if s.fail {
		return errors.New("port gone")
	}
	s.allOff++
	return nil
}

type collector struct {
	seen []model.Telemetry
}

func (c *collector) Publish(t model.Telemetry) {
	c.seen = append(c.seen, t)
}

// flatHand has every landmark at the same point, so its spread is zero.
func flatHand(side model.Side, x, y float64) model.Hand {
	h := model.Hand{Side: side}
	for i := range h.Landmarks {
		h.Landmarks[i] = model.Landmark{X: x, Y: y}
	}
	return h
}

func at(ms int) time.Time {
	return time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond)
}

func newEngine(sink midi.Sink) (*Engine, *collector) {
	c := &collector{}
	e := New(config.Default(), midi.NewPlayer(sink, nil), WithPresenter(c))
	return e, c
}

func TestNoHandsPlaysDefaultChord(t *testing.T) {
	sink := &fakeSink{}
	e, c := newEngine(sink)

	res := e.Tick(context.Background(), model.Observation{}, true, at(0))
	require.NoError(t, res.Err)
	assert.Equal(t, 60, res.Root)
	assert.Equal(t, model.Major, res.Quality)
	assert.Equal(t, model.Notes{60, 64, 67}, res.Notes)
	assert.Equal(t, 80, res.Velocity)
	assert.Equal(t, 110, res.Tempo)
	assert.Equal(t, model.Notes{60, 64, 67}, res.On)
	assert.Empty(t, res.Off)

	require.Len(t, c.seen, 1)
	assert.Equal(t, "C5+E5+G5", c.seen[0].Chord)
	assert.Equal(t, "no hands", c.seen[0].Status)
	assert.Equal(t, e.Session(), c.seen[0].Session)
}

func TestStagesRunInOrder(t *testing.T) {
	e, _ := newEngine(&fakeSink{})
	res := e.Tick(context.Background(), model.Observation{}, true, at(0))
	assert.Equal(t, []Stage{Sampled, Filtered, Resolved, Built, Voiced, Diffed, Emitted}, res.Stages)
	assert.Equal(t, "voiced", Voiced.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestRepeatedObservationIsSilent(t *testing.T) {
	sink := &fakeSink{}
	e, _ := newEngine(sink)
	obs := model.Observation{Hands: []model.Hand{flatHand(model.Primary, 0.5, 0.5)}}

	e.Tick(context.Background(), obs, true, at(0))
	sent := len(sink.on) + len(sink.off)
	res := e.Tick(context.Background(), obs, true, at(33))
	assert.Empty(t, res.On)
	assert.Empty(t, res.Off)
	assert.Equal(t, sent, len(sink.on)+len(sink.off))
}

func TestSecondaryHandChangesQuality(t *testing.T) {
	sink := &fakeSink{}
	e, _ := newEngine(sink)

	e.Tick(context.Background(), model.Observation{}, true, at(0))
	obs := model.Observation{Hands: []model.Hand{
		flatHand(model.Primary, 0.5, 0.5),
		flatHand(model.Secondary, 0.5, 0.5),
	}}
	res := e.Tick(context.Background(), obs, true, at(33))

	assert.Equal(t, model.Minor, res.Quality)
	assert.Equal(t, model.Notes{60, 63, 67}, res.Notes)
	assert.Equal(t, model.Notes{63}, res.On)
	assert.Equal(t, model.Notes{64}, res.Off)
	assert.Equal(t, 50, res.Velocity)
	assert.Equal(t, 80, res.Tempo)
}

func TestStaleTickHoldsRootAndReusesLastObservation(t *testing.T) {
	e, _ := newEngine(&fakeSink{})
	high := model.Observation{Hands: []model.Hand{
		flatHand(model.Primary, 0.5, 0),
		flatHand(model.Secondary, 0.5, 0.5),
	}}

	first := e.Tick(context.Background(), high, true, at(0))
	assert.Equal(t, 61, first.Root)

	stale := e.Tick(context.Background(), model.Observation{}, false, at(500))
	assert.False(t, stale.Fresh)
	assert.Equal(t, 61, stale.Root)
	assert.Equal(t, model.Minor, stale.Quality)
	assert.Empty(t, stale.On)
	assert.Empty(t, stale.Off)

	fresh := e.Tick(context.Background(), high, true, at(600))
	assert.Equal(t, 62, fresh.Root)

	sum := e.Metrics().Summary()
	assert.EqualValues(t, 3, sum.Ticks)
	assert.EqualValues(t, 1, sum.StaleTicks)
	assert.EqualValues(t, 2, sum.RootCommits)
}

func TestDeadSinkKeepsTicking(t *testing.T) {
	sink := &fakeSink{fail: true}
	e, c := newEngine(sink)

	first := e.Tick(context.Background(), model.Observation{}, true, at(0))
	require.Error(t, first.Err)
	second := e.Tick(context.Background(), model.Observation{}, true, at(33))
	assert.ErrorIs(t, second.Err, midi.ErrSinkDead)
	assert.Equal(t, model.Notes{60, 64, 67}, second.Notes)

	assert.True(t, e.Player().Dead())
	assert.Equal(t, "midi output muted", c.seen[1].Status)
	assert.EqualValues(t, 1, e.Metrics().Summary().SendErrors)
}

func TestFailingClassifierShowsDegradedWithoutCooldown(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer svr.Close()

	cfg := config.Default()
	cfg.Remote.Enabled = true
	cfg.Remote.Endpoint = svr.URL
	cfg.Remote.CooldownMs = 0
	c := &collector{}
	e := New(cfg, midi.NewPlayer(&fakeSink{}, nil), WithPresenter(c))

	obs := model.Observation{Hands: []model.Hand{
		flatHand(model.Primary, 0.5, 0.5),
		flatHand(model.Secondary, 0.5, 0.5),
	}}
	for i := 0; i < 2; i++ {
		res := e.Tick(context.Background(), obs, true, at(i*33))
		assert.Equal(t, model.Minor, res.Quality)
	}
	require.Len(t, c.seen, 2)
	assert.Equal(t, "classifier degraded, using heuristic", c.seen[1].Status)
}

func TestStopReleasesHeldNotes(t *testing.T) {
	sink := &fakeSink{}
	e, _ := newEngine(sink)
	e.Tick(context.Background(), model.Observation{}, true, at(0))

	released := e.Stop()
	assert.Equal(t, model.Notes{60, 64, 67}, released)
	assert.Equal(t, []uint8{60, 64, 67}, sink.off)
	assert.Equal(t, 1, sink.allOff)
	assert.Empty(t, e.Player().Held())
}

func TestRunStopsWithPanicOnCancel(t *testing.T) {
	sink := &fakeSink{}
	cfg := config.Default()
	cfg.TickRate = 200
	e := New(cfg, midi.NewPlayer(sink, nil))

	src := &perception.Latest{}
	src.Put(model.Observation{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, src) }()

	assert.Eventually(t, func() bool { return e.Metrics().Ticks.Count() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	assert.Equal(t, []uint8{60, 64, 67}, sink.on)
	assert.Equal(t, []uint8{60, 64, 67}, sink.off)
	assert.Equal(t, 1, sink.allOff)
	assert.Empty(t, e.Player().Held())
}
