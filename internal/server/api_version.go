package server

import (
	"net/http"

	"mpdhub/internal/version"
)

func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
