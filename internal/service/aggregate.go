package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/model"
)

// DefaultTopExpenses is how many top expenses Stats reports unless
// configured otherwise.
const DefaultTopExpenses = 3

// trendMonths is the length of the trailing monthly trend, current month
// included.
const trendMonths = 6

// monthWindow returns the inclusive bounds of the calendar month
// containing now, in now's location.
func monthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// weekWindow returns the inclusive bounds of the week containing now.
// Weeks start on Sunday. This is a fixed convention, not locale-derived.
func weekWindow(now time.Time) (time.Time, time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := day.AddDate(0, 0, -int(now.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// AggregationEngine computes the dashboard statistics for one user's
// expense set against a caller-supplied reference instant, which keeps
// every window testable.
type AggregationEngine struct {
	topN int
}

// NewAggregationEngine creates an engine reporting the topN highest
// expenses of the current month. topN <= 0 falls back to the default.
func NewAggregationEngine(topN int) *AggregationEngine {
	if topN <= 0 {
		topN = DefaultTopExpenses
	}
	return &AggregationEngine{topN: topN}
}

// Compute aggregates the given expenses. Re-running with the same inputs
// and the same now yields an identical result.
func (a *AggregationEngine) Compute(expenses []model.Expense, now time.Time) *model.ExpenseStats {
	monthStart, monthEnd := monthWindow(now)
	weekStart, weekEnd := weekWindow(now)

	stats := &model.ExpenseStats{
		MonthlyTotal:      decimal.Zero,
		WeeklyTotal:       decimal.Zero,
		CategoryBreakdown: []model.CategoryTotal{},
		TopExpenses:       []model.Expense{},
	}

	byCategory := make(map[string]*model.CategoryTotal)
	var monthly []model.Expense

	for _, e := range expenses {
		if inWindow(e.Date, weekStart, weekEnd) {
			stats.WeeklyTotal = stats.WeeklyTotal.Add(e.Amount)
		}
		if !inWindow(e.Date, monthStart, monthEnd) {
			continue
		}
		stats.MonthlyTotal = stats.MonthlyTotal.Add(e.Amount)
		monthly = append(monthly, e)

		ct, ok := byCategory[e.Category]
		if !ok {
			ct = &model.CategoryTotal{Category: e.Category, Total: decimal.Zero}
			byCategory[e.Category] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}

	for _, ct := range byCategory {
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, *ct)
	}
	sort.Slice(stats.CategoryBreakdown, func(i, j int) bool {
		cmp := stats.CategoryBreakdown[i].Total.Cmp(stats.CategoryBreakdown[j].Total)
		if cmp == 0 {
			return stats.CategoryBreakdown[i].Category < stats.CategoryBreakdown[j].Category
		}
		return cmp > 0
	})

	stats.MonthlyTrend = monthlyTrend(expenses, now)
	stats.TopExpenses = topExpenses(monthly, a.topN)

	return stats
}

// monthlyTrend totals each of the trailing six calendar months, current
// month included, oldest first. Months without expenses stay in the series
// with a zero total so charts get a continuous time axis.
func monthlyTrend(expenses []model.Expense, now time.Time) []model.TrendPoint {
	trend := make([]model.TrendPoint, 0, trendMonths)
	for i := trendMonths - 1; i >= 0; i-- {
		monthRef := time.Date(now.Year(), now.Month()-time.Month(i), 1, 0, 0, 0, 0, now.Location())
		start, end := monthWindow(monthRef)

		total := decimal.Zero
		for _, e := range expenses {
			if inWindow(e.Date, start, end) {
				total = total.Add(e.Amount)
			}
		}
		trend = append(trend, model.TrendPoint{
			Year:  start.Year(),
			Month: int(start.Month()),
			Total: total,
		})
	}
	return trend
}

// topExpenses picks the n highest-amount expenses from the given window
// set. Amount ties go to the more recent date, then to ID ascending.
func topExpenses(monthly []model.Expense, n int) []model.Expense {
	ranked := make([]model.Expense, len(monthly))
	copy(ranked, monthly)
	sort.Slice(ranked, func(i, j int) bool {
		cmp := ranked[i].Amount.Cmp(ranked[j].Amount)
		if cmp != 0 {
			return cmp > 0
		}
		if !ranked[i].Date.Equal(ranked[j].Date) {
			return ranked[i].Date.After(ranked[j].Date)
		}
		return ranked[i].ID.String() < ranked[j].ID.String()
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
