//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jsphweid/handcomposer/cmd"
	"github.com/jsphweid/handcomposer/config"
	"github.com/jsphweid/handcomposer/engine"
	"github.com/jsphweid/handcomposer/midi"
	"github.com/jsphweid/handcomposer/model"
	"github.com/jsphweid/handcomposer/perception"
	"github.com/jsphweid/handcomposer/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nullSink struct{}

func (nullSink) NoteOn(note, velocity uint8) error { return nil }
func (nullSink) NoteOff(note uint8) error          { return nil }
func (nullSink) AllNotesOff() error                { return nil }

// openHand puts every fingertip `spread` to the right of the wrist.
func openHand(label string, y, spread float64) model.HandFrame {
	pts := make([][]float64, 21)
	for i := range pts {
		pts[i] = []float64{0.5, y, 0}
	}
	for _, i := range []int{4, 8, 12, 16, 20} {
		pts[i] = []float64{0.5 + spread, y, 0}
	}
	return model.HandFrame{Label: label, Landmarks: pts}
}

func startClassifier(t *testing.T) *config.Config {
	t.Helper()
	srv := httptest.NewServer(cmd.NewRouter(quality.NewHeuristic(config.Default().Quality)))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Remote.Enabled = true
	cfg.Remote.Endpoint = srv.URL + "/predict"
	cfg.Remote.TimeoutMs = 500
	return cfg
}

func TestReportThroughRemoteClassifier(t *testing.T) {
	cfg := startClassifier(t)

	var in bytes.Buffer
	enc := json.NewEncoder(&in)
	for i, spread := range []float64{0.03, 0.08, 0.2} {
		f := model.Frame{TimeMs: int64(i * 200), Hands: []model.HandFrame{
			openHand("Right", 0.5, 0.1),
			openHand("Left", 0.5, spread),
		}}
		require.NoError(t, enc.Encode(f))
	}

	var out bytes.Buffer
	require.NoError(t, cmd.RunReport(context.Background(), &in, &out, cfg, nil))
	s := out.String()

	assert.Contains(t, s, "C5+D#5+G5")
	assert.Contains(t, s, "C5+E5+G5")
	assert.Contains(t, s, "A#5+C5+E5+G5")
	assert.Contains(t, s, "frames:       3")
}

func TestTrackerToEngineOverWebsocket(t *testing.T) {
	cfg := startClassifier(t)
	cfg.TickRate = 100

	hub := perception.NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	eng := engine.New(cfg, midi.NewPlayer(nullSink{}, nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx, hub) }()

	frame := model.Frame{TimeMs: 0, Hands: []model.HandFrame{
		openHand("Right", 0.5, 0.1),
		openHand("Left", 0.5, 0.2),
	}}
	require.NoError(t, conn.WriteJSON(frame))

	assert.Eventually(t, func() bool {
		return eng.Metrics().NotesOn.Count() >= 4
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Empty(t, eng.Player().Held())
}
