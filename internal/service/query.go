package service

import (
	"sort"
	"strings"

	"spendtrack/internal/model"
)

// matchesFilter applies the filter's matching predicate to a single
// expense. All clauses are AND-ed; absent clauses match everything.
func matchesFilter(e model.Expense, f model.ExpenseFilter) bool {
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	if f.Search != nil && *f.Search != "" {
		needle := strings.ToLower(*f.Search)
		inTitle := strings.Contains(strings.ToLower(e.Title), needle)
		inNote := e.Note != nil && strings.Contains(strings.ToLower(*e.Note), needle)
		if !inTitle && !inNote {
			return false
		}
	}
	if f.StartDate != nil && e.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.Date.After(*f.EndDate) {
		return false
	}
	return true
}

// compareExpenses orders a before b for the given sort key, ascending.
// Returns -1, 0 or +1.
func compareExpenses(a, b model.Expense, sortBy string) int {
	switch sortBy {
	case model.SortByAmount:
		return a.Amount.Cmp(b.Amount)
	case model.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	default: // model.SortByDate
		if a.Date.Before(b.Date) {
			return -1
		}
		if a.Date.After(b.Date) {
			return 1
		}
		return 0
	}
}

// sortExpenses orders the slice by the filter's sort key and direction.
// Ties are broken by ID ascending regardless of direction, so that equal
// dates, amounts or titles still produce a deterministic order.
func sortExpenses(expenses []model.Expense, sortBy, sortOrder string) {
	sort.Slice(expenses, func(i, j int) bool {
		cmp := compareExpenses(expenses[i], expenses[j], sortBy)
		if cmp == 0 {
			return expenses[i].ID.String() < expenses[j].ID.String()
		}
		if sortOrder == model.SortDesc {
			return cmp > 0
		}
		return cmp < 0
	})
}

// paginate slices one page out of the full match set. A page past the end
// yields an empty item list, not an error; Total always reflects the full
// match count.
func paginate(expenses []model.Expense, page, limit int) *model.ExpensePage {
	total := len(expenses)
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	// page has no upper bound, so the offset arithmetic could overflow
	// for absurd page numbers. Comparing against totalPages first keeps
	// offset within [0, total).
	items := []model.Expense{}
	if page <= totalPages {
		offset := (page - 1) * limit
		end := offset + limit
		if end > total {
			end = total
		}
		items = expenses[offset:end]
	}

	return &model.ExpensePage{
		Expenses:   items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// filterAndSort returns the full ordered match set for a validated filter.
func filterAndSort(expenses []model.Expense, f model.ExpenseFilter) []model.Expense {
	matched := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if matchesFilter(e, f) {
			matched = append(matched, e)
		}
	}
	sortExpenses(matched, f.SortBy, f.SortOrder)
	return matched
}

// queryExpenses runs the full filter/sort/paginate pipeline over a user's
// expense set. The filter must already be validated.
func queryExpenses(expenses []model.Expense, f model.ExpenseFilter) *model.ExpensePage {
	return paginate(filterAndSort(expenses, f), f.Page, f.Limit)
}
