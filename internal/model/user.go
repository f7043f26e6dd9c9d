package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account in the system
type User struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"` // Do not expose password hash in JSON responses
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	CreatedAt     time.Time       `json:"created_at"`
}

// UpdateProfileRequest carries a partial profile update.
type UpdateProfileRequest struct {
	Name          *string          `json:"name,omitempty"`
	MonthlyBudget *decimal.Decimal `json:"monthly_budget,omitempty"`
}
