package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Server) handlePlayersSSE(w http.ResponseWriter, r *http.Request) {
	if s.players == nil {
		writeError(w, http.StatusServiceUnavailable, "media players not configured")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.players.Subscribe()
	defer s.players.Unsubscribe(ch)

	if data, err := json.Marshal(s.players.Players()); err == nil {
		fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(st)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
