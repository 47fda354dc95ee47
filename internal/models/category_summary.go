package models

import "github.com/shopspring/decimal"

// CategorySummary contains aggregated expense data for one category
type CategorySummary struct {
	Category     Category        `json:"category"`
	ExpenseCount int64           `json:"count"`
	TotalAmount  decimal.Decimal `json:"total"`
}

// ExpenseTotal is the aggregate over every expense matching a filter
type ExpenseTotal struct {
	Total    decimal.Decimal
	Count    int64
	Currency string
}

// ExpensePage is one page of a filtered, ordered expense listing
type ExpensePage struct {
	Expenses []Expense
	Count    int64
	Page     int
	PageSize int
}

// LastPage returns the number of the last page, at least 1
func (p *ExpensePage) LastPage() int {
	if p.PageSize <= 0 || p.Count == 0 {
		return 1
	}
	return int((p.Count + int64(p.PageSize) - 1) / int64(p.PageSize))
}

func (p *ExpensePage) HasNext() bool {
	return p.Page < p.LastPage()
}

func (p *ExpensePage) HasPrevious() bool {
	return p.Page > 1
}
