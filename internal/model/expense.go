package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Canonical expense categories. This is the set enforced at the API
// boundary; clients must not invent their own variants.
const (
	CategoryFood           = "Food"
	CategoryTransportation = "Transportation"
	CategoryEntertainment  = "Entertainment"
	CategoryShopping       = "Shopping"
	CategoryBills          = "Bills"
	CategoryHealthcare     = "Healthcare"
	CategoryEducation      = "Education"
	CategoryTravel         = "Travel"
	CategoryPersonalCare   = "Personal Care"
	CategoryOther          = "Other"
)

// Categories lists every valid expense category.
var Categories = []string{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryBills,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTravel,
	CategoryPersonalCare,
	CategoryOther,
}

// ValidCategory reports whether c is one of the canonical categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const (
	MaxTitleLen = 100
	MaxNoteLen  = 500
)

// Expense represents a single spending record owned by one user.
type Expense struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"user_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  string          `json:"category"`
	Date      time.Time       `json:"date"`
	Note      *string         `json:"note,omitempty"` // Pointer for optional field
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CreateExpenseRequest is used for creating a new expense
type CreateExpenseRequest struct {
	Title    string          `json:"title" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Category string          `json:"category" binding:"required"`
	Date     time.Time       `json:"date"`
	Note     *string         `json:"note"`
}

// UpdateExpenseRequest carries a partial update; nil fields are left unchanged.
type UpdateExpenseRequest struct {
	Title    *string          `json:"title,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Category *string          `json:"category,omitempty"`
	Date     *time.Time       `json:"date,omitempty"`
	Note     *string          `json:"note,omitempty"`
}
