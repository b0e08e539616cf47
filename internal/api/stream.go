package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleSessionStream upgrades to a websocket and relays session
// events (messages, phase changes, pending toggles) to the rendering
// layer until the client goes away.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	o := s.lookupSession(w, r)
	if o == nil {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := o.Subscribe()
	defer cancel()

	slog.Info("session stream connected", "token", o.Token())

	// Drain client frames so pings/closes are processed; the stream is
	// one-directional.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			slog.Debug("session stream closed by client", "token", o.Token())
			return
		case ev, ok := <-events:
			if !ok {
				// Session was removed
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("session stream write failed", "token", o.Token(), "error", err)
				return
			}
		}
	}
}
