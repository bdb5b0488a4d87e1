package controller

import (
	"context"
	"slices"
	"sync"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
)

// StatsLoader loads aggregated company rows.
type StatsLoader interface {
	ListCompanyStats(ctx context.Context, filter models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error)
}

// CompanyListView holds the company table of one viewer: the rows of the
// last load and the current sort order.
type CompanyListView struct {
	loader StatsLoader

	mu     sync.Mutex
	state  table.SortState
	filter models.CompanyFilter
	loaded []models.CompanyStats
	rows   []models.CompanyStats
}

func NewCompanyListView(loader StatsLoader) *CompanyListView {
	return &CompanyListView{loader: loader}
}

// Load fetches the rows matching filter and orders them by the current
// sort state. On error the previous rows are kept.
func (v *CompanyListView) Load(ctx context.Context, filter models.CompanyFilter) ([]models.CompanyStats, error) {
	loaded, err := v.loader.ListCompanyStats(ctx, filter, table.SortState{})
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = filter
	v.loaded = loaded
	v.rows = v.state.Apply(loaded)
	return slices.Clone(v.rows), nil
}

// Reload repeats the last Load with the same filter.
func (v *CompanyListView) Reload(ctx context.Context) ([]models.CompanyStats, error) {
	v.mu.Lock()
	filter := v.filter
	v.mu.Unlock()
	return v.Load(ctx, filter)
}

// Sort toggles the sort state for key and reorders the loaded rows. Rows
// are always sorted from load order, so ties keep the order they were
// loaded in.
func (v *CompanyListView) Sort(key table.SortKey) []models.CompanyStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = v.state.Toggle(key)
	v.rows = v.state.Apply(v.loaded)
	return slices.Clone(v.rows)
}

// LoadSorted loads the rows matching filter, then toggles the sort state
// for key. It returns the reordered rows and the new state.
func (v *CompanyListView) LoadSorted(ctx context.Context, filter models.CompanyFilter, key table.SortKey) ([]models.CompanyStats, table.SortState, error) {
	if _, err := v.Load(ctx, filter); err != nil {
		return nil, table.SortState{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = v.state.Toggle(key)
	v.rows = v.state.Apply(v.loaded)
	return slices.Clone(v.rows), v.state, nil
}

func (v *CompanyListView) Rows() []models.CompanyStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.rows)
}

func (v *CompanyListView) State() table.SortState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// CompanyListViews keeps one CompanyListView per viewer, so each user has
// their own sort order.
type CompanyListViews struct {
	loader StatsLoader

	mu    sync.Mutex
	views map[string]*CompanyListView
}

func NewCompanyListViews(loader StatsLoader) *CompanyListViews {
	return &CompanyListViews{loader: loader, views: make(map[string]*CompanyListView)}
}

// View returns the viewer's list view, creating it on first use.
func (l *CompanyListViews) View(viewer string) *CompanyListView {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.views[viewer]
	if !ok {
		v = NewCompanyListView(l.loader)
		l.views[viewer] = v
	}
	return v
}

// Sort reloads the viewer's table with filter and sorts it by key.
func (l *CompanyListViews) Sort(ctx context.Context, viewer string, filter models.CompanyFilter, key table.SortKey) ([]models.CompanyStats, table.SortState, error) {
	return l.View(viewer).LoadSorted(ctx, filter, key)
}
