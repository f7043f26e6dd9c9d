package model

import (
	"fmt"
	"time"
)

const (
	SortByDate   = "date"
	SortByAmount = "amount"
	SortByTitle  = "title"

	SortAsc  = "asc"
	SortDesc = "desc"

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// ValidationError reports a malformed filter or entity field. It is never
// retried and surfaces to the caller verbatim.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ExpenseFilter describes one list query: matching, ordering and paging.
// It is a stateless value object rebuilt per request.
type ExpenseFilter struct {
	Category  *string
	Search    *string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// DefaultFilter returns the filter applied when the caller supplies no
// parameters: newest first, first page of ten.
func DefaultFilter() ExpenseFilter {
	return ExpenseFilter{
		SortBy:    SortByDate,
		SortOrder: SortDesc,
		Page:      1,
		Limit:     DefaultPageLimit,
	}
}

// Validate checks every field and names the first offending one. Invalid
// values are rejected, never coerced.
func (f ExpenseFilter) Validate() error {
	switch f.SortBy {
	case SortByDate, SortByAmount, SortByTitle:
	default:
		return NewValidationError("sortBy", fmt.Sprintf("must be one of %s, %s, %s", SortByDate, SortByAmount, SortByTitle))
	}

	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		return NewValidationError("sortOrder", fmt.Sprintf("must be %s or %s", SortAsc, SortDesc))
	}

	if f.Page < 1 {
		return NewValidationError("page", "must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxPageLimit {
		return NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxPageLimit))
	}

	if f.Category != nil && !ValidCategory(*f.Category) {
		return NewValidationError("category", "unknown category")
	}

	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return NewValidationError("endDate", "must not be before startDate")
	}

	return nil
}
