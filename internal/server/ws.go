package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mpdhub/internal/models"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 10 * time.Second
)

// playerMessage is one websocket frame. Snapshot frames carry every player,
// update frames carry the one that changed.
type playerMessage struct {
	Type    string               `json:"type"`
	Players []models.PlayerState `json:"players,omitempty"`
	Player  *models.PlayerState  `json:"player,omitempty"`
}

func (s *Server) wsUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.corsOrigin == "*" || origin == s.corsOrigin || sameHost(origin, r.Host)
		},
	}
}

func sameHost(origin, host string) bool {
	return origin == "http://"+host || origin == "https://"+host
}

func (s *Server) handlePlayersWS(w http.ResponseWriter, r *http.Request) {
	if s.players == nil {
		writeError(w, http.StatusServiceUnavailable, "media players not configured")
		return
	}

	upgrader := s.wsUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.players.Subscribe()
	defer s.players.Unsubscribe(ch)

	// Reads are only drained to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg playerMessage) error {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg)
	}

	if err := write(playerMessage{Type: "snapshot", Players: s.players.Players()}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := write(playerMessage{Type: "update", Player: &st}); err != nil {
				slog.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
