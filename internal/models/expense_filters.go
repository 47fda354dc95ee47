package models

import "strings"

// SortOrder is the listing order of expenses
type SortOrder string

const (
	SortDateDesc SortOrder = "date_desc"
	SortDateAsc  SortOrder = "date_asc"
)

// ParseSortOrder returns the sort order for a recognized value
func ParseSortOrder(value string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case SortDateDesc:
		return SortDateDesc, true
	case SortDateAsc:
		return SortDateAsc, true
	default:
		return "", false
	}
}

// ExpenseFilters contains filtering options for expense queries
type ExpenseFilters struct {
	// Category is nil when no category filter applies
	Category *Category
	Sort     SortOrder
	Offset   int
	Limit    int
}

// NewExpenseFilters builds filters from raw query values. Unrecognized
// category and sort values are ignored: the filter is dropped and the
// default order applies.
func NewExpenseFilters(category, sort string) ExpenseFilters {
	filters := ExpenseFilters{Sort: SortDateDesc}

	if category != "" && !strings.EqualFold(strings.TrimSpace(category), CategoryAll) {
		if parsed, ok := NormalizeCategory(category); ok {
			filters.Category = &parsed
		}
	}

	if parsed, ok := ParseSortOrder(sort); ok {
		filters.Sort = parsed
	}

	return filters
}

// OrderClause returns the ORDER BY clause for the sort order. The id column
// breaks ties between rows inserted within the same clock tick.
func (f ExpenseFilters) OrderClause() string {
	if f.Sort == SortDateAsc {
		return "date ASC, created_at ASC, id ASC"
	}
	return "date DESC, created_at DESC, id DESC"
}

// WithPage returns a copy of the filters restricted to a 1-based page
func (f ExpenseFilters) WithPage(page, pageSize int) ExpenseFilters {
	if page < 1 {
		page = 1
	}
	f.Offset = (page - 1) * pageSize
	f.Limit = pageSize
	return f
}
