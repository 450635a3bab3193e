package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/authorworks/internal/core"
	"github.com/JonMunkholm/authorworks/internal/relate"
	"github.com/JonMunkholm/authorworks/internal/web/templates"
)

// maxRequestBody bounds the JSON body of POST /api/exports.
const maxRequestBody = 64 << 10

// startExportRequest is the optional body of POST /api/exports.
type startExportRequest struct {
	Targets []string `json:"targets"`
	Mode    string   `json:"mode"`
}

// handleStartExport validates the request and starts a background export.
// It answers 202 with the running run, whose report fills in at
// /api/exports/{id}.
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	var req startExportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	if _, err := s.service.Options(req.Mode); err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}
	for i, name := range req.Targets {
		req.Targets[i] = strings.TrimSpace(name)
		if _, err := core.LookupTarget(req.Targets[i]); err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	run, err := s.service.Start(core.ExportRequest{
		Targets: req.Targets,
		Mode:    req.Mode,
		Trigger: core.TriggerHTTP,
	})
	if err != nil {
		if errors.Is(err, core.ErrTooManyExports) {
			w.Header().Set("Retry-After", "30")
		}
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Location", "/api/exports/"+run.ID)
	writeJSON(w, http.StatusAccepted, run)
}

// handleListRuns returns the run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.service.History().List()
	if runs == nil {
		runs = []*core.ExportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleGetRun returns one run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.History().Get(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// datasetResponse describes the configured input without exporting it.
type datasetResponse struct {
	Dataset core.DatasetSummary `json:"dataset"`
	Summary relate.Summary      `json:"summary"`
}

// handleDataset prepares the configured CSV files and returns their
// statistics.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.Prepare(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, datasetResponse{Dataset: d.Describe(), Summary: d.Summary()})
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status  string             `json:"status"`
	Exports core.LimiterStatus `json:"exports"`
	Runs    int                `json:"runs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Exports: s.service.Limiter().Status(),
		Runs:    len(s.service.History().List()),
	})
}

// handleRunsPage renders the run history.
func (s *Server) handleRunsPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.RunList(s.service.History().List()).Render(r.Context(), w)
}

// handleRunPage renders the report of one run.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.History().Get(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.RunReport(run).Render(r.Context(), w)
}
