package web

import (
	"bytes"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/godilite/perf-dashboard/internal/service"
)

type dashboardPage struct {
	Version          string
	LoadError        string
	DivisionChart    barChart
	StakeholderChart barChart
	Selection        service.Selection
	Breakdown        *service.Breakdown
	NoData           bool
}

// dashboard renders the overview charts and the drill-down for the selection
// given by the division and stakeholder query parameters.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := dashboardPage{}
	status := http.StatusOK

	if err := h.buildDashboard(r, &page); err != nil {
		code, msg := h.classify(ctx, "dashboard", err)
		status = code
		page = dashboardPage{LoadError: msg}
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "dashboard.html", page); err != nil {
		h.logger.Error("dashboard render failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) buildDashboard(r *http.Request, page *dashboardPage) error {
	ctx := r.Context()

	divisions, err := h.summary(ctx, service.GroupByDivision)
	if err != nil {
		return err
	}
	stakeholders, err := h.summary(ctx, service.GroupByStakeholder)
	if err != nil {
		return err
	}

	page.Version = divisions.Version
	page.DivisionChart = newBarChart("Performance by Division", service.GroupByDivision, divisions.Groups, h.chartCfg)
	page.StakeholderChart = newBarChart("Performance by Stakeholder", service.GroupByStakeholder, stakeholders.Groups, h.chartCfg)

	q := r.URL.Query()
	sel, err := h.perf.DefaultSelection(ctx, q.Get("division"), q.Get("stakeholder"))
	if err != nil {
		return err
	}
	page.Selection = sel

	if sel.Empty() {
		page.NoData = true
		return nil
	}

	b, err := h.breakdown(ctx, sel.Division, sel.Stakeholder)
	switch {
	case errors.Is(err, service.ErrNoData):
		page.NoData = true
	case err != nil:
		return err
	default:
		page.Breakdown = &b
	}
	return nil
}
