// Package query holds the pagination, sort, search and filter state of the
// subscription list.
package query

import (
	"slices"

	"github.com/kdudkov/tgsubs/pkg/model"
)

const (
	SortID         = "id"
	SortCreated    = "created_at"
	SortExpires    = "subscription_expires_at"
	SortStatus     = "status"
	SortEmail      = "email"
	SortProduct    = "product"
	DefaultSort    = SortCreated
	DefaultPerPage = 10
)

var (
	PerPageOptions = []int{10, 25, 50, 100}
	SortColumns    = []string{SortID, SortCreated, SortExpires, SortStatus, SortEmail, SortProduct}
)

// State is owned by a single view. Total and Pages only change in Apply.
type State struct {
	Page      int
	PerPage   int
	Total     int
	Pages     int
	SortBy    string
	SortOrder model.SortOrder
	Search    string
	Status    model.Status
	ProductID uint
	UserID    uint

	loaded bool
}

func New(perPage int) *State {
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}

	return &State{
		Page:      1,
		PerPage:   perPage,
		SortBy:    DefaultSort,
		SortOrder: model.SortDesc,
	}
}

// SetSearch returns true if the value changed.
func (s *State) SetSearch(search string) bool {
	if s.Search == search {
		return false
	}

	s.Search = search
	s.Page = 1

	return true
}

func (s *State) SetStatus(status model.Status) bool {
	if s.Status == status {
		return false
	}

	s.Status = status
	s.Page = 1

	return true
}

func (s *State) SetProductID(id uint) bool {
	if s.ProductID == id {
		return false
	}

	s.ProductID = id
	s.Page = 1

	return true
}

func (s *State) SetUserID(id uint) bool {
	if s.UserID == id {
		return false
	}

	s.UserID = id
	s.Page = 1

	return true
}

// SetSort toggles direction when col is already the sort column,
// otherwise sorts by col descending.
func (s *State) SetSort(col string) bool {
	if !slices.Contains(SortColumns, col) {
		return false
	}

	if s.SortBy == col {
		if s.SortOrder == model.SortAsc {
			s.SortOrder = model.SortDesc
		} else {
			s.SortOrder = model.SortAsc
		}

		return true
	}

	s.SortBy = col
	s.SortOrder = model.SortDesc

	return true
}

func (s *State) SetPerPage(n int) bool {
	if !slices.Contains(PerPageOptions, n) || s.PerPage == n {
		return false
	}

	s.PerPage = n
	s.Page = 1

	return true
}

// SetPage moves to page n, clamped to the known page range once data is loaded.
func (s *State) SetPage(n int) bool {
	if s.loaded {
		n = min(n, max(s.Pages, 1))
	}

	n = max(n, 1)

	if s.Page == n {
		return false
	}

	s.Page = n

	return true
}

// Apply takes pagination metadata from a server answer.
func (s *State) Apply(page int, perPage int, total int, pages int) {
	s.Total = max(total, 0)
	s.Pages = max(pages, 0)

	if perPage > 0 {
		s.PerPage = perPage
	}

	s.Page = min(max(page, 1), max(s.Pages, 1))
	s.loaded = true
}

func (s *State) Loaded() bool {
	return s.loaded
}

// Query returns a snapshot of the request parameters.
func (s *State) Query() model.ListQuery {
	return model.ListQuery{
		Page:      s.Page,
		PerPage:   s.PerPage,
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
		Search:    s.Search,
		Status:    s.Status,
		ProductID: s.ProductID,
		UserID:    s.UserID,
	}
}
