package perception

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jsphweid/handcomposer/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(n int, y float64) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{0.5, y, 0}
	}
	return out
}

func TestNormalizeOrdersAndFilters(t *testing.T) {
	f := model.Frame{Hands: []model.HandFrame{
		{Label: "Left", Landmarks: points(21, 0.7)},
		{Label: "thumb", Landmarks: points(21, 0.1)},
		{Label: "Right", Landmarks: points(20, 0.2)},
		{Label: "right", Landmarks: points(21, 0.3)},
		{Label: "right", Landmarks: points(21, 0.9)},
	}}

	obs := Normalize(f)
	require.Len(t, obs.Hands, 2)
	assert.Equal(t, model.Primary, obs.Hands[0].Side)
	assert.Equal(t, 0.3, obs.Hands[0].Landmarks[0].Y)
	assert.Equal(t, model.Secondary, obs.Hands[1].Side)
	assert.Equal(t, 0.7, obs.Secondary().Landmarks[0].Y)
}

func TestNormalizeRejectsBadPoints(t *testing.T) {
	pts := points(21, 0.5)
	pts[4] = []float64{0.1}
	obs := Normalize(model.Frame{Hands: []model.HandFrame{{Label: "right", Landmarks: pts}}})
	assert.True(t, obs.Empty())

	pts = points(21, 0.5)
	pts[4] = []float64{0.1, 0.2}
	obs = Normalize(model.Frame{Hands: []model.HandFrame{{Label: "right", Landmarks: pts}}})
	require.NotNil(t, obs.Primary())
	assert.Equal(t, 0.2, obs.Primary().Landmarks[4].Y)
	assert.Nil(t, obs.Secondary())
}

func TestLatestReportsFreshOnce(t *testing.T) {
	var l Latest
	_, fresh := l.Next()
	assert.False(t, fresh)

	l.Put(model.Observation{Hands: []model.Hand{{Side: model.Primary}}})
	obs, fresh := l.Next()
	assert.True(t, fresh)
	assert.Len(t, obs.Hands, 1)

	obs, fresh = l.Next()
	assert.False(t, fresh)
	assert.Len(t, obs.Hands, 1)
}

func TestReadFramesAndReplay(t *testing.T) {
	capture := `{"t_ms": 0, "hands": [{"label": "right", "landmarks": [` + strings.Repeat(`[0.5,0.5,0],`, 20) + `[0.5,0.5,0]]}]}

{"t_ms": 33, "hands": []}
`
	frames, err := ReadFrames(strings.NewReader(capture))
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, int64(33), frames[1].TimeMs)

	r := NewReplay(frames)
	obs, fresh := r.Next()
	assert.True(t, fresh)
	assert.NotNil(t, obs.Primary())
	obs, fresh = r.Next()
	assert.True(t, fresh)
	assert.True(t, obs.Empty())
	assert.True(t, r.Done())
	_, fresh = r.Next()
	assert.False(t, fresh)
}

func TestReadFramesReportsLine(t *testing.T) {
	_, err := ReadFrames(strings.NewReader("{\"t_ms\": 1}\n{oops\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestHubReceivesFrames(t *testing.T) {
	hub := NewHub(nil)
	svr := httptest.NewServer(hub)
	defer svr.Close()

	url := "ws" + strings.TrimPrefix(svr.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(model.Frame{Hands: []model.HandFrame{
		{Label: "left", Landmarks: points(21, 0.4)},
	}}))

	var obs model.Observation
	assert.Eventually(t, func() bool {
		var fresh bool
		obs, fresh = hub.Next()
		return fresh
	}, 2*time.Second, 10*time.Millisecond)
	require.NotNil(t, obs.Secondary())
	assert.Equal(t, 0.4, obs.Secondary().Landmarks[0].Y)
}
