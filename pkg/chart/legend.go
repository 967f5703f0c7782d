package chart

import (
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/preference"
)

// LegendKey is the preference key holding the legend selection.
const LegendKey = "homepageCostChart.legendSelection"

// LegendSelection is the persisted set of visible series.
type LegendSelection struct {
	SelectedIDs []string `json:"selectedIds"`
}

// Legend persists the visible series through a preference store.
//
// Storage failures never block rendering: reads fall back to the default
// selection and are logged.
type Legend struct {
	store  preference.Store
	logger logger.Logger
}

// NewLegend creates a legend backed by store.
func NewLegend(store preference.Store, log logger.Logger) *Legend {
	return &Legend{
		store:  store,
		logger: log,
	}
}

// Stored returns the raw persisted selection.
func (l *Legend) Stored() (LegendSelection, bool, error) {
	var sel LegendSelection
	found, err := preference.GetJSON(l.store, LegendKey, &sel)
	if err != nil {
		return LegendSelection{}, false, err
	}
	if sel.SelectedIDs == nil {
		sel.SelectedIDs = []string{}
	}
	return sel, found, nil
}

// Selection resolves the visible ids for the ranked groups.
func (l *Legend) Selection(ranked []string) []string {
	if len(ranked) == 0 {
		return []string{}
	}

	sel, _, err := l.Stored()
	if err != nil {
		l.logger.Warn("failed to read legend selection, using default", "error", err)
		return InitialSelection(ranked, nil)
	}
	return InitialSelection(ranked, sel.SelectedIDs)
}

// Save persists the visible ids.
func (l *Legend) Save(selected []string) error {
	if selected == nil {
		selected = []string{}
	}
	return preference.SetJSON(l.store, LegendKey, LegendSelection{SelectedIDs: selected})
}

// Toggle flips id in the resolved selection and persists the result.
func (l *Legend) Toggle(ranked []string, id string) ([]string, error) {
	next := Toggle(l.Selection(ranked), id)
	if err := l.Save(next); err != nil {
		return nil, err
	}
	return next, nil
}
