package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdudkov/tgsubs/pkg/model"
)

func TestNew(t *testing.T) {
	s := New(33)

	assert.Equal(t, 1, s.Page)
	assert.Equal(t, DefaultPerPage, s.PerPage)
	assert.Equal(t, SortCreated, s.SortBy)
	assert.Equal(t, model.SortDesc, s.SortOrder)
	assert.False(t, s.Loaded())
}

func TestFiltersResetPage(t *testing.T) {
	for name, set := range map[string]func(s *State) bool{
		"search":  func(s *State) bool { return s.SetSearch("alice") },
		"status":  func(s *State) bool { return s.SetStatus(model.StatusActive) },
		"product": func(s *State) bool { return s.SetProductID(3) },
		"user":    func(s *State) bool { return s.SetUserID(5) },
	} {
		t.Run(name, func(t *testing.T) {
			s := New(10)
			s.Apply(3, 10, 25, 3)
			require.Equal(t, 3, s.Page)

			require.True(t, set(s))
			assert.Equal(t, 1, s.Page)
			assert.Equal(t, 25, s.Total)
			assert.Equal(t, 3, s.Pages)

			assert.False(t, set(s))
		})
	}
}

func TestSort(t *testing.T) {
	s := New(10)

	require.True(t, s.SetSort(SortEmail))
	assert.Equal(t, SortEmail, s.SortBy)
	assert.Equal(t, model.SortDesc, s.SortOrder)

	require.True(t, s.SetSort(SortEmail))
	assert.Equal(t, model.SortAsc, s.SortOrder)

	require.True(t, s.SetSort(SortEmail))
	assert.Equal(t, model.SortDesc, s.SortOrder)

	s.SetSort(SortEmail)
	require.True(t, s.SetSort(SortStatus))
	assert.Equal(t, model.SortDesc, s.SortOrder)

	assert.False(t, s.SetSort("password"))
	assert.Equal(t, SortStatus, s.SortBy)
}

func TestPerPage(t *testing.T) {
	s := New(10)
	s.Apply(2, 10, 25, 3)
	s.SetSearch("bob")
	s.SetPage(2)

	require.True(t, s.SetPerPage(25))
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, "bob", s.Search)

	assert.False(t, s.SetPerPage(7))
	assert.Equal(t, 25, s.PerPage)
}

func TestPageKeepsFilters(t *testing.T) {
	s := New(10)
	s.SetSearch("bob")
	s.SetStatus(model.StatusExpired)
	s.Apply(1, 10, 45, 5)

	require.True(t, s.SetPage(4))
	assert.Equal(t, 4, s.Page)
	assert.Equal(t, "bob", s.Search)
	assert.Equal(t, model.StatusExpired, s.Status)
}

func TestPageClamp(t *testing.T) {
	s := New(10)

	// nothing loaded yet, upper bound unknown
	s.SetPage(7)
	assert.Equal(t, 7, s.Page)

	s.Apply(7, 10, 25, 3)
	assert.Equal(t, 3, s.Page)

	s.SetPage(10)
	assert.Equal(t, 3, s.Page)

	s.SetPage(-1)
	assert.Equal(t, 1, s.Page)

	s.Apply(1, 10, 0, 0)
	assert.Equal(t, 1, s.Page)
	assert.False(t, s.SetPage(2))
}

func TestQuery(t *testing.T) {
	s := New(25)
	s.SetSearch("a")
	s.SetProductID(2)

	q := s.Query()
	assert.Equal(t, model.ListQuery{Page: 1, PerPage: 25, SortBy: SortCreated, SortOrder: model.SortDesc, Search: "a", ProductID: 2}, q)

	s.SetSearch("b")
	assert.Equal(t, "a", q.Search)
}
