package dashboard

import (
	"strings"

	"github.com/fboessen22/jobdash/internal/protocol"
)

const DefaultPageSize = 25

// FilterState is the user's current view of the job collection. Empty
// Category and SearchTerm mean unset; DaysWindow 0 means the latest run only.
type FilterState struct {
	Category       string `json:"category"`
	SearchTerm     string `json:"search_term"`
	DaysWindow     int    `json:"days_window"`
	ShowOnlyFailed bool   `json:"show_only_failed"`
	CurrentPage    int    `json:"current_page"`
	PageSize       int    `json:"page_size"`
}

func NewFilterState(defaultCategory string, days, pageSize int) FilterState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if days < 0 {
		days = 0
	}
	return FilterState{
		Category:    defaultCategory,
		DaysWindow:  days,
		CurrentPage: 1,
		PageSize:    pageSize,
	}
}

// Scoped reports whether a category or search narrows the collection. Stats
// come from the server only while the view is unscoped.
func (f FilterState) Scoped() bool {
	return f.Category != "" || f.SearchTerm != ""
}

func (f FilterState) pageSize() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}

func scopePredicate(f FilterState) func(protocol.JobRecord) bool {
	term := strings.ToLower(f.SearchTerm)
	return func(rec protocol.JobRecord) bool {
		if f.Category != "" && rec.CategoryName != f.Category {
			return false
		}
		if term != "" && !strings.Contains(strings.ToLower(rec.JobName), term) {
			return false
		}
		return true
	}
}

// StatsScope narrows records by category and search only. The failed-only
// toggle never applies here.
func StatsScope(records []protocol.JobRecord, f FilterState) []protocol.JobRecord {
	keep := scopePredicate(f)
	out := make([]protocol.JobRecord, 0, len(records))
	for _, rec := range records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// ListScope is StatsScope further narrowed by the failed-only toggle.
func ListScope(records []protocol.JobRecord, f FilterState) []protocol.JobRecord {
	scoped := StatsScope(records, f)
	if !f.ShowOnlyFailed {
		return scoped
	}
	out := scoped[:0]
	for _, rec := range scoped {
		if protocol.IsFailedRunStatus(rec.RunStatus) {
			out = append(out, rec)
		}
	}
	return out
}

type Page struct {
	Records       []protocol.JobRecord `json:"records"`
	TotalFiltered int                  `json:"total_filtered"`
	TotalPages    int                  `json:"total_pages"`
	CurrentPage   int                  `json:"current_page"`
	PageSize      int                  `json:"page_size"`
}

func (p Page) Empty() bool {
	return p.TotalFiltered == 0
}

// Range returns the 1-based positions of the first and last record shown.
func (p Page) Range() (first, last int) {
	if p.Empty() {
		return 0, 0
	}
	first = (p.CurrentPage-1)*p.PageSize + 1
	return first, first + len(p.Records) - 1
}

// FilterAndPaginate returns the page of ListScope selected by f.CurrentPage,
// clamped into [1, TotalPages].
func FilterAndPaginate(records []protocol.JobRecord, f FilterState) Page {
	filtered := ListScope(records, f)
	size := f.pageSize()
	totalPages := (len(filtered) + size - 1) / size
	page := ClampPage(f.CurrentPage, totalPages)

	out := Page{
		TotalFiltered: len(filtered),
		TotalPages:    totalPages,
		CurrentPage:   page,
		PageSize:      size,
		Records:       []protocol.JobRecord{},
	}
	if totalPages == 0 {
		return out
	}
	start := (page - 1) * size
	end := start + size
	if end > len(filtered) {
		end = len(filtered)
	}
	out.Records = filtered[start:end]
	return out
}

func ClampPage(page, totalPages int) int {
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}
