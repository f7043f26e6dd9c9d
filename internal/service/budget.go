package service

import (
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/model"
)

// DefaultBudgetRoundPlaces matches what the dashboard displays.
const DefaultBudgetRoundPlaces = 1

var oneHundred = decimal.NewFromInt(100)

// BudgetTracker turns current-month spend and a configured budget into a
// progress report. It shares the calendar-month window with the
// aggregation engine so the two always agree on "this month".
type BudgetTracker struct {
	roundPlaces int32
}

// NewBudgetTracker creates a tracker rounding the reported percentage to
// roundPlaces decimal places. Negative values fall back to the default.
func NewBudgetTracker(roundPlaces int32) *BudgetTracker {
	if roundPlaces < 0 {
		roundPlaces = DefaultBudgetRoundPlaces
	}
	return &BudgetTracker{roundPlaces: roundPlaces}
}

// Progress computes the budget report for the calendar month containing
// now. A budget of zero or less means "no budget set" and yields a zero
// percentage, never an error. Remaining is clamped at zero; Percentage is
// computed at full precision, clamped to [0,100], then rounded.
func (b *BudgetTracker) Progress(expenses []model.Expense, budget decimal.Decimal, now time.Time) *model.BudgetProgress {
	start, end := monthWindow(now)

	spent := decimal.Zero
	for _, e := range expenses {
		if inWindow(e.Date, start, end) {
			spent = spent.Add(e.Amount)
		}
	}

	remaining := budget.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	percentage := decimal.Zero
	if budget.IsPositive() {
		percentage = spent.Div(budget).Mul(oneHundred)
		if percentage.GreaterThan(oneHundred) {
			percentage = oneHundred
		}
	}

	return &model.BudgetProgress{
		Spent:      spent,
		Budget:     budget,
		Remaining:  remaining,
		Percentage: percentage.Round(b.roundPlaces),
	}
}
