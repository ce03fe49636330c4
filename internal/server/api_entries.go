package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"mpdhub/internal/models"
)

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	for i := range entries {
		entries[i] = entries[i].Redacted()
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetEntry(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry.Redacted())
}

// handleDeleteEntry unloads a loaded entry before deleting it. An entry whose
// unload fails stays both loaded and stored.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.GetEntry(chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}

	if s.isLoaded(entry.ID) && !s.integration.UnloadEntry(r.Context(), s.hub, *entry) {
		writeError(w, http.StatusConflict, "entry could not be unloaded")
		return
	}

	if err := s.store.DeleteEntry(entry.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) isLoaded(entryID string) bool {
	if s.integration == nil || s.hub == nil {
		return false
	}
	ns, ok := s.hub.Namespace(models.Domain)
	if !ok {
		return false
	}
	_, loaded := ns.Get(entryID)
	return loaded
}
