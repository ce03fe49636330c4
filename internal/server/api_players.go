package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	if s.players == nil {
		writeError(w, http.StatusServiceUnavailable, "media players not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.players.Players())
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	if s.players == nil {
		writeError(w, http.StatusServiceUnavailable, "media players not configured")
		return
	}
	st, ok := s.players.Player(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
