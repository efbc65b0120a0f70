package service

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/formfill/profile"
	"github.com/hazyhaar/formfill/store"
)

// Router builds the control API.
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/ping", s.handlePing)
	r.Post("/v1/fill", s.handleFill)
	r.Post("/v1/fill/snapshot", s.handleFillSnapshot)

	r.Get("/v1/profile", s.handleGetProfile)
	r.Put("/v1/profile", s.handlePutProfile)

	r.Get("/v1/rules", s.handleListRules)
	r.Put("/v1/rules/{domain}", s.handlePutRule)
	r.Delete("/v1/rules/{domain}", s.handleDeleteRule)

	r.Post("/v1/import", s.handleImport)
	r.Get("/v1/export", s.handleExport)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Service) handlePing(w http.ResponseWriter, r *http.Request) {
	if err := s.Ping(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// FillRequest is the body for POST /v1/fill.
type FillRequest struct {
	URL    string `json:"url"`
	DryRun *bool  `json:"dryRun,omitempty"`
}

func (s *Service) handleFill(w http.ResponseWriter, r *http.Request) {
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	sum, err := s.RunURL(r.Context(), req.URL, Overrides{DryRun: req.DryRun})
	if err != nil {
		s.logger.Error("service: fill failed", "url", req.URL, "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleFillSnapshot accepts raw HTML and reports what a fill pass would
// do. The source URL (for per-domain rules) comes from the "url" query
// parameter.
func (s *Service) handleFillSnapshot(w http.ResponseWriter, r *http.Request) {
	sum, err := s.RunSnapshot(r.Context(), r.Body, r.URL.Query().Get("url"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.store.Profile()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (s *Service) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var raw map[profile.Field]string
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.store.PutProfile(raw); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Service) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.Rules()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rules == nil {
		rules = []store.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (s *Service) handlePutRule(w http.ResponseWriter, r *http.Request) {
	var rule store.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	rule.Domain = chi.URLParam(r, "domain")
	if err := s.store.PutRule(rule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Service) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRule(chi.URLParam(r, "domain")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Service) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Import(r.Body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "imported"})
}

func (s *Service) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.store.Export(w); err != nil {
		s.logger.Error("service: export failed", "error", err)
	}
}
