package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/discovery"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
	cmmw "github.com/0xmhha/cost-monitor/pkg/server/middleware"
)

type handlers struct {
	store       Store
	fetcher     orchestrator.Fetcher
	discoverer  discovery.Discoverer
	legend      *chart.Legend
	concurrency int
	location    *time.Location
}

// costBucket is the wire form of a bucket.
type costBucket struct {
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	TotalCost float64            `json:"totalCost"`
	PerGroup  map[string]float64 `json:"perGroup"`
}

type costsResponse struct {
	Unit        string             `json:"unit,omitempty"`
	Buckets     []costBucket       `json:"buckets"`
	GroupTotals map[string]float64 `json:"groupTotals"`
	Dropped     int                `json:"dropped"`
	IsLoading   bool               `json:"isLoading"`
}

// listProjects handles GET /api/projects
func (h *handlers) listProjects(w http.ResponseWriter, r *http.Request) {
	state := project.DefaultSortState()
	if v := r.URL.Query().Get("sort"); v != "" {
		col, err := project.ParseColumn(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state.Column = col
	}
	if v := r.URL.Query().Get("order"); v != "" {
		order, err := project.ParseOrder(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state.Order = order
	}

	projects := h.store.Projects()
	if h.discoverer != nil {
		found, err := h.discoverer.Discover()
		if err != nil {
			cmmw.FromContext(r.Context()).Warn("project discovery failed", "error", err)
		} else {
			projects = project.Merge(projects, found)
		}
	}

	sorted, err := state.Apply(projects)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sorted)
}

// listIssues handles GET /api/projects/{projectId}/issues
func (h *handlers) listIssues(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectId")
	issues := h.store.Issues(projectID)
	if issues == nil {
		issues = []issue.Issue{}
	}
	writeJSON(w, http.StatusOK, issues)
}

// costs handles GET /api/costs
func (h *handlers) costs(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("projects"))
	if len(ids) == 0 {
		ids = h.store.ProjectIDs()
	}

	log := cmmw.FromContext(r.Context())
	result, err := orchestrator.Aggregate(r.Context(), h.fetcher, ids, h.concurrency,
		bucket.WithLocation(h.location))
	if err != nil {
		log.Error("cost aggregation failed", "projects", ids, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if result.Dropped > 0 {
		log.Warn("records outside bucket range", "dropped", result.Dropped)
	}

	writeJSON(w, http.StatusOK, toCostsResponse(result))
}

func toCostsResponse(result bucket.Result) costsResponse {
	resp := costsResponse{
		Buckets:     make([]costBucket, 0, len(result.Buckets)),
		GroupTotals: result.GroupTotals,
		Dropped:     result.Dropped,
	}
	if resp.GroupTotals == nil {
		resp.GroupTotals = map[string]float64{}
	}
	if !result.IsEmpty() {
		resp.Unit = result.Unit.String()
	}
	for _, b := range result.Buckets {
		per := b.PerGroup
		if per == nil {
			per = map[string]float64{}
		}
		resp.Buckets = append(resp.Buckets, costBucket{
			Start:     b.Start,
			End:       b.End,
			TotalCost: b.TotalCost,
			PerGroup:  per,
		})
	}
	return resp
}

// getLegend handles GET /api/preferences/legend
func (h *handlers) getLegend(w http.ResponseWriter, r *http.Request) {
	totals := make(map[string]float64)
	for _, id := range h.store.ProjectIDs() {
		totals[id] = issue.Sum(h.store.Issues(id)).Cost
	}

	writeJSON(w, http.StatusOK, chart.LegendSelection{
		SelectedIDs: h.legend.Selection(chart.RankGroups(totals)),
	})
}

// putLegend handles PUT /api/preferences/legend
func (h *handlers) putLegend(w http.ResponseWriter, r *http.Request) {
	var sel chart.LegendSelection
	if !readJSON(w, r, &sel) {
		return
	}
	if sel.SelectedIDs == nil {
		sel.SelectedIDs = []string{}
	}

	if err := h.legend.Save(sel.SelectedIDs); err != nil {
		cmmw.FromContext(r.Context()).Error("failed to save legend selection", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save legend selection")
		return
	}
	writeJSON(w, http.StatusOK, sel)
}

// splitIDs parses a comma-separated id list, dropping blanks and repeats.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
