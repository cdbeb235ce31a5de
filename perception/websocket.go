package perception

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/jsphweid/handcomposer/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub accepts tracker connections over websocket and keeps the latest frame.
// Any number of trackers may connect; the last frame received wins.
type Hub struct {
	Latest
	log *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{log: log}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("perception: websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.Close()
	h.log.Info("perception: tracker connected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("perception: tracker read failed", "remote", r.RemoteAddr, "err", err)
			} else {
				h.log.Info("perception: tracker disconnected", "remote", r.RemoteAddr)
			}
			return
		}
		var f model.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.log.Debug("perception: dropping undecodable frame", "remote", r.RemoteAddr, "err", err)
			continue
		}
		h.Put(Normalize(f))
	}
}
