package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/sharkguard/internal/core"
)

// handleCatchReport lists one page of catches with their shark and beach.
//
// Query parameters: page, pageSize, beach (beach id), species, dateFrom,
// dateTo. Dates are compared as text, so callers pass the same format the
// CSV used.
func (s *Server) handleCatchReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := s.service.ListCatches(r.Context(), core.CatchQuery{
		CatchFilter: core.CatchFilter{
			BeachID:  parseInt64Param(r, "beach"),
			Species:  strings.TrimSpace(q.Get("species")),
			DateFrom: strings.TrimSpace(q.Get("dateFrom")),
			DateTo:   strings.TrimSpace(q.Get("dateTo")),
		},
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "pageSize", 0),
	})
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleBeachStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.service.BeachStats(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if counts == nil {
		counts = []core.BeachCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleSpeciesDistribution(w http.ResponseWriter, r *http.Request) {
	counts, err := s.service.SpeciesDistribution(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if counts == nil {
		counts = []core.SpeciesCount{}
	}
	writeJSON(w, http.StatusOK, counts)
}

// handleSpecies serves the static species reference table.
func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, core.SpeciesTable())
}

func (s *Server) handleBeaches(w http.ResponseWriter, r *http.Request) {
	beaches, err := s.service.Beaches(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if beaches == nil {
		beaches = []core.Beach{}
	}
	writeJSON(w, http.StatusOK, beaches)
}
