package web

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/godilite/perf-dashboard/internal/service"
)

type divisionsResponse struct {
	Divisions []string `json:"divisions"`
}

type stakeholdersResponse struct {
	Division     string   `json:"division"`
	Stakeholders []string `json:"stakeholders"`
}

type reloadResponse struct {
	Version  string    `json:"version"`
	Records  int       `json:"records"`
	Sheets   []string  `json:"sheets"`
	LoadedAt time.Time `json:"loaded_at"`
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	by, err := service.ParseGroupBy(chi.URLParam(r, "dimension"))
	if err != nil {
		h.renderError(w, r, "getSummary", err)
		return
	}

	summary, err := h.summary(r.Context(), by)
	if err != nil {
		h.renderError(w, r, "getSummary", err)
		return
	}
	if summary.Groups == nil {
		summary.Groups = []service.Aggregate{}
	}
	render.JSON(w, r, summary)
}

func (h *Handler) listDivisions(w http.ResponseWriter, r *http.Request) {
	divisions, err := h.perf.Divisions(r.Context())
	if err != nil {
		h.renderError(w, r, "listDivisions", err)
		return
	}
	if divisions == nil {
		divisions = []string{}
	}
	render.JSON(w, r, divisionsResponse{Divisions: divisions})
}

func (h *Handler) listStakeholders(w http.ResponseWriter, r *http.Request) {
	division := chi.URLParam(r, "division")
	// chi routes on the escaped path when one is present.
	if r.URL.RawPath != "" {
		if d, err := url.PathUnescape(division); err == nil {
			division = d
		}
	}
	stakeholders, err := h.perf.Stakeholders(r.Context(), division)
	if err != nil {
		h.renderError(w, r, "listStakeholders", err)
		return
	}
	if stakeholders == nil {
		stakeholders = []string{}
	}
	render.JSON(w, r, stakeholdersResponse{Division: division, Stakeholders: stakeholders})
}

func (h *Handler) getBreakdown(w http.ResponseWriter, r *http.Request) {
	division := strings.TrimSpace(r.URL.Query().Get("division"))
	stakeholder := strings.TrimSpace(r.URL.Query().Get("stakeholder"))
	if division == "" || stakeholder == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "division and stakeholder are required"})
		return
	}

	b, err := h.breakdown(r.Context(), division, stakeholder)
	if err != nil {
		h.renderError(w, r, "getBreakdown", err)
		return
	}
	render.JSON(w, r, b)
}

func (h *Handler) reloadDataset(w http.ResponseWriter, r *http.Request) {
	v, err := h.perf.Reload(r.Context())
	if err != nil {
		h.renderError(w, r, "reloadDataset", err)
		return
	}
	sheets := v.Sheets
	if sheets == nil {
		sheets = []string{}
	}
	render.JSON(w, r, reloadResponse{
		Version:  v.Fingerprint,
		Records:  v.Records,
		Sheets:   sheets,
		LoadedAt: v.LoadedAt,
	})
}
