package model

import "github.com/shopspring/decimal"

// ExpensePage is one page of a filtered expense listing.
type ExpensePage struct {
	Expenses   []Expense `json:"expenses"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// TrendPoint is one month of the trailing spending trend.
type TrendPoint struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// ExpenseStats is the aggregated dashboard view for one user.
//
// CategoryBreakdown covers the current calendar month, sorted by total
// descending; categories with no expenses are omitted. MonthlyTrend covers
// the trailing six months including the current one, oldest first, with
// empty months reported as zero so the series forms a continuous axis.
type ExpenseStats struct {
	MonthlyTotal      decimal.Decimal `json:"monthlyTotal"`
	WeeklyTotal       decimal.Decimal `json:"weeklyTotal"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	MonthlyTrend      []TrendPoint    `json:"monthlyTrend"`
	TopExpenses       []Expense       `json:"topExpenses"`
}

// BudgetProgress reports current-month spend against a configured budget.
// Remaining never goes negative and Percentage is clamped to [0,100];
// how far over budget the user is stays derivable as Spent - Budget.
type BudgetProgress struct {
	Spent      decimal.Decimal `json:"spent"`
	Budget     decimal.Decimal `json:"budget"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
}
