package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"spendtrack/internal/model"
)

func budgetOf(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBudgetProgressOverBudget(t *testing.T) {
	// budget=200, spent=250: remaining clamps to 0, percentage to 100.
	expenses := []model.Expense{
		testExpense(1, "rent share", "250", model.CategoryBills, day(2024, time.March, 3)),
	}
	now := day(2024, time.March, 15)

	progress := NewBudgetTracker(-1).Progress(expenses, budgetOf("200"), now)

	assert.True(t, progress.Spent.Equal(budgetOf("250")))
	assert.True(t, progress.Remaining.IsZero())
	assert.True(t, progress.Percentage.Equal(budgetOf("100")), "percentage=%s", progress.Percentage)
}

func TestBudgetProgressNoBudgetSet(t *testing.T) {
	expenses := []model.Expense{
		testExpense(1, "lunch", "25", model.CategoryFood, day(2024, time.March, 3)),
	}
	now := day(2024, time.March, 15)

	progress := NewBudgetTracker(-1).Progress(expenses, decimal.Zero, now)

	assert.True(t, progress.Percentage.IsZero())
	assert.True(t, progress.Remaining.IsZero())
	assert.True(t, progress.Spent.Equal(budgetOf("25")))
}

func TestBudgetProgressUnderBudget(t *testing.T) {
	expenses := []model.Expense{
		testExpense(1, "groceries", "75", model.CategoryFood, day(2024, time.March, 3)),
		// Previous month; not part of this month's spend.
		testExpense(2, "old", "500", model.CategoryFood, day(2024, time.February, 3)),
	}
	now := day(2024, time.March, 15)

	progress := NewBudgetTracker(1).Progress(expenses, budgetOf("300"), now)

	assert.True(t, progress.Spent.Equal(budgetOf("75")))
	assert.True(t, progress.Remaining.Equal(budgetOf("225")))
	assert.True(t, progress.Percentage.Equal(budgetOf("25")), "percentage=%s", progress.Percentage)
}

func TestBudgetPercentageRounding(t *testing.T) {
	// 100/300 = 33.333...%; rounded to one place for display, but never
	// computed on truncated intermediates.
	expenses := []model.Expense{
		testExpense(1, "x", "100", model.CategoryFood, day(2024, time.March, 3)),
	}
	now := day(2024, time.March, 15)

	progress := NewBudgetTracker(1).Progress(expenses, budgetOf("300"), now)
	assert.True(t, progress.Percentage.Equal(budgetOf("33.3")), "percentage=%s", progress.Percentage)

	progress = NewBudgetTracker(3).Progress(expenses, budgetOf("300"), now)
	assert.True(t, progress.Percentage.Equal(budgetOf("33.333")), "percentage=%s", progress.Percentage)
}

func TestBudgetProgressInvariants(t *testing.T) {
	now := day(2024, time.March, 15)
	tracker := NewBudgetTracker(-1)

	budgets := []string{"0", "1", "99.99", "250", "1000000"}
	spends := []string{"0.01", "100", "250", "99999"}

	for _, b := range budgets {
		for _, s := range spends {
			expenses := []model.Expense{
				testExpense(1, "x", s, model.CategoryOther, day(2024, time.March, 3)),
			}
			progress := tracker.Progress(expenses, budgetOf(b), now)
			assert.False(t, progress.Remaining.IsNegative(), "budget=%s spent=%s", b, s)
			assert.True(t, progress.Percentage.GreaterThanOrEqual(decimal.Zero), "budget=%s spent=%s", b, s)
			assert.True(t, progress.Percentage.LessThanOrEqual(budgetOf("100")), "budget=%s spent=%s", b, s)
		}
	}
}

func TestBudgetWindowMatchesAggregation(t *testing.T) {
	// An expense on the month boundary must count for both the tracker
	// and the aggregation engine, or for neither.
	boundary := time.Date(2024, time.March, 31, 23, 59, 59, 0, time.UTC)
	expenses := []model.Expense{
		testExpense(1, "boundary", "42", model.CategoryFood, boundary),
	}
	now := day(2024, time.March, 15)

	progress := NewBudgetTracker(-1).Progress(expenses, budgetOf("100"), now)
	stats := NewAggregationEngine(0).Compute(expenses, now)

	assert.True(t, progress.Spent.Equal(stats.MonthlyTotal))
}
