package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mpdhub/internal/configflow"
	"mpdhub/internal/models"
)

type initFlowRequest struct {
	Source models.EntrySource      `json:"source"`
	Input  *models.ConnectionInput `json:"input"`
}

type configureFlowRequest struct {
	Input *models.ConnectionInput `json:"input"`
}

type flowResponse struct {
	configflow.Progress
	Entry *models.Entry `json:"entry,omitempty"`
}

func (s *Server) handleInitFlow(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		writeError(w, http.StatusServiceUnavailable, "config flows not configured")
		return
	}
	var req initFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Source == "" {
		req.Source = models.SourceUser
	}

	p, err := s.flows.Init(r.Context(), req.Source, req.Input)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	s.finishFlow(w, r, p)
}

func (s *Server) handleConfigureFlow(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		writeError(w, http.StatusServiceUnavailable, "config flows not configured")
		return
	}
	var req configureFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	p, err := s.flows.Configure(r.Context(), chi.URLParam(r, "id"), req.Input)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	s.finishFlow(w, r, p)
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		writeError(w, http.StatusServiceUnavailable, "config flows not configured")
		return
	}
	p, err := s.flows.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, flowResponse{Progress: redactProgress(p)})
}

func (s *Server) handleAbortFlow(w http.ResponseWriter, r *http.Request) {
	if s.flows == nil {
		writeError(w, http.StatusServiceUnavailable, "config flows not configured")
		return
	}
	if err := s.flows.Abort(chi.URLParam(r, "id")); err != nil {
		writeFlowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// finishFlow persists and sets up the entry when the flow created one.
func (s *Server) finishFlow(w http.ResponseWriter, r *http.Request, p configflow.Progress) {
	if p.Result.Type != configflow.ResultCreateEntry {
		writeJSON(w, http.StatusOK, flowResponse{Progress: redactProgress(p)})
		return
	}

	entry, err := configflow.NewEntry(p.Source, p.Result)
	if err != nil {
		slog.Error("building entry from flow", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
		return
	}
	if err := s.store.CreateEntry(&entry); err != nil {
		writeStoreError(w, err)
		return
	}
	if s.integration != nil && !s.integration.SetupEntry(r.Context(), s.hub, entry) {
		slog.Warn("entry setup failed", "entry_id", entry.ID, "title", entry.Title)
	}

	redacted := entry.Redacted()
	writeJSON(w, http.StatusCreated, flowResponse{Progress: redactProgress(p), Entry: &redacted})
}

func redactProgress(p configflow.Progress) configflow.Progress {
	if p.Result.Data != nil {
		d := p.Result.Data.Redacted()
		p.Result.Data = &d
	}
	return p
}

func writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, configflow.ErrUnknownFlow):
		writeError(w, http.StatusNotFound, "unknown flow")
	case errors.Is(err, configflow.ErrFlowBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, configflow.ErrMissingImportData), errors.Is(err, configflow.ErrUnsupportedSource):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("config flow", "error", err)
		writeError(w, http.StatusInternalServerError, "internal")
	}
}
