package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/gartstein/visitlog/internal/visitlog/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	rows []models.CompanyStats
	err  error
	seen []models.CompanyFilter
}

func (s *stubLoader) ListCompanyStats(_ context.Context, f models.CompanyFilter, state table.SortState) ([]models.CompanyStats, error) {
	s.seen = append(s.seen, f)
	if s.err != nil {
		return nil, s.err
	}
	return state.Apply(s.rows), nil
}

func statsRow(name string, visits int) models.CompanyStats {
	return models.CompanyStats{Company: models.Company{Name: name}, VisitCount: visits}
}

func names(rows []models.CompanyStats) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestCompanyListView(t *testing.T) {
	loader := &stubLoader{rows: []models.CompanyStats{
		statsRow("c", 1), statsRow("a", 2), statsRow("b", 1),
	}}
	view := NewCompanyListView(loader)
	ctx := context.Background()

	rows, err := view.Load(ctx, models.CompanyFilter{Region: "Seoul"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(rows))

	assert.Equal(t, []string{"a", "b", "c"}, names(view.Sort(table.KeyName)))
	assert.Equal(t, []string{"c", "b", "a"}, names(view.Sort(table.KeyName)))
	assert.Equal(t, table.SortState{Key: table.KeyName, Direction: table.Desc}, view.State())

	// Ties keep load order, not the order of the previous sort.
	assert.Equal(t, []string{"c", "b", "a"}, names(view.Sort(table.KeyVisitCount)))
	assert.Equal(t, []string{"a", "c", "b"}, names(view.Sort(table.KeyVisitCount)))

	t.Run("reload keeps filter and order", func(t *testing.T) {
		rows, err := view.Reload(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, names(rows))
		assert.Equal(t, models.CompanyFilter{Region: "Seoul"}, loader.seen[len(loader.seen)-1])
	})

	t.Run("failed load keeps previous rows", func(t *testing.T) {
		loader.err = errors.New("unavailable")
		_, err := view.Load(ctx, models.CompanyFilter{})
		assert.Error(t, err)
		assert.Equal(t, []string{"a", "c", "b"}, names(view.Rows()))
	})
}

func TestCompanyListViews_Sort(t *testing.T) {
	loader := &stubLoader{rows: []models.CompanyStats{
		statsRow("b", 1), statsRow("c", 3), statsRow("a", 2),
	}}
	views := NewCompanyListViews(loader)
	ctx := context.Background()
	seoul := models.CompanyFilter{Region: "Seoul"}

	rows, state, err := views.Sort(ctx, "kim", seoul, table.KeyName)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(rows))
	assert.Equal(t, table.SortState{Key: table.KeyName, Direction: table.Asc}, state)
	assert.Equal(t, seoul, loader.seen[len(loader.seen)-1])

	rows, state, err = views.Sort(ctx, "kim", seoul, table.KeyName)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, names(rows))
	assert.Equal(t, table.Desc, state.Direction)

	rows, state, err = views.Sort(ctx, "kim", seoul, table.KeyVisitCount)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, names(rows))
	assert.Equal(t, table.SortState{Key: table.KeyVisitCount, Direction: table.Asc}, state)

	t.Run("viewers are independent", func(t *testing.T) {
		_, state, err := views.Sort(ctx, "lee", models.CompanyFilter{}, table.KeyVisitCount)
		require.NoError(t, err)
		assert.Equal(t, table.Asc, state.Direction)
		assert.Same(t, views.View("kim"), views.View("kim"))
		assert.Equal(t, table.KeyVisitCount, views.View("kim").State().Key)
	})

	t.Run("load error keeps state", func(t *testing.T) {
		loader.err = errors.New("unavailable")
		_, _, err := views.Sort(ctx, "kim", seoul, table.KeyName)
		assert.Error(t, err)
		assert.Equal(t, table.SortState{Key: table.KeyVisitCount, Direction: table.Asc}, views.View("kim").State())
	})
}
