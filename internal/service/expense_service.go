package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"spendtrack/internal/model"
	"spendtrack/internal/repository"
)

var (
	ErrExpenseNotFound = errors.New("expense not found")
	ErrUserNotFound    = errors.New("user not found")
)

// ExpenseService defines the expense retrieval and analytics pipeline plus
// the CRUD operations feeding it.
type ExpenseService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req model.CreateExpenseRequest) (*model.Expense, error)
	GetByID(ctx context.Context, ownerID, expenseID uuid.UUID) (*model.Expense, error)
	List(ctx context.Context, ownerID uuid.UUID, filter model.ExpenseFilter) (*model.ExpensePage, error)
	Update(ctx context.Context, ownerID, expenseID uuid.UUID, req model.UpdateExpenseRequest) (*model.Expense, error)
	Delete(ctx context.Context, ownerID, expenseID uuid.UUID) error
	Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*model.ExpenseStats, error)
	BudgetProgress(ctx context.Context, ownerID uuid.UUID, now time.Time) (*model.BudgetProgress, error)
	ExportCSV(ctx context.Context, ownerID uuid.UUID, filter model.ExpenseFilter) (*bytes.Buffer, error)
}

type expenseService struct {
	repo     repository.ExpenseRepository
	userRepo repository.UserRepository
	engine   *AggregationEngine
	budget   *BudgetTracker
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(repo repository.ExpenseRepository, userRepo repository.UserRepository, engine *AggregationEngine, budget *BudgetTracker) ExpenseService {
	return &expenseService{repo: repo, userRepo: userRepo, engine: engine, budget: budget}
}

// validateExpenseFields enforces the entity contract shared by create and
// update: title 1-100 chars, amount strictly positive, known category,
// note at most 500 chars.
func validateExpenseFields(title string, amount decimal.Decimal, category string, note *string) error {
	if title == "" || utf8.RuneCountInString(title) > model.MaxTitleLen {
		return model.NewValidationError("title", fmt.Sprintf("must be between 1 and %d characters", model.MaxTitleLen))
	}
	if !amount.IsPositive() {
		return model.NewValidationError("amount", "must be greater than 0")
	}
	if !model.ValidCategory(category) {
		return model.NewValidationError("category", "unknown category")
	}
	if note != nil && utf8.RuneCountInString(*note) > model.MaxNoteLen {
		return model.NewValidationError("note", fmt.Sprintf("must be at most %d characters", model.MaxNoteLen))
	}
	return nil
}

func (s *expenseService) Create(ctx context.Context, ownerID uuid.UUID, req model.CreateExpenseRequest) (*model.Expense, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateExpenseFields(req.Title, req.Amount, req.Category, req.Note); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	now := time.Now()
	expense := &model.Expense{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Title:     req.Title,
		Amount:    req.Amount,
		Category:  req.Category,
		Date:      date,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense in repo: %w", err)
	}
	return expense, nil
}

func (s *expenseService) GetByID(ctx context.Context, ownerID, expenseID uuid.UUID) (*model.Expense, error) {
	expense, err := s.repo.FindByID(ctx, expenseID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	if expense == nil {
		return nil, ErrExpenseNotFound
	}
	return expense, nil
}

// List validates the filter, then runs the deterministic
// filter/sort/paginate pipeline over the owner's expense set.
func (s *expenseService) List(ctx context.Context, ownerID uuid.UUID, filter model.ExpenseFilter) (*model.ExpensePage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses from repo: %w", err)
	}
	return queryExpenses(expenses, filter), nil
}

func (s *expenseService) Update(ctx context.Context, ownerID, expenseID uuid.UUID, req model.UpdateExpenseRequest) (*model.Expense, error) {
	existing, err := s.repo.FindByID(ctx, expenseID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find expense for update: %w", err)
	}
	if existing == nil {
		return nil, ErrExpenseNotFound
	}

	// Apply updates
	if req.Title != nil {
		existing.Title = strings.TrimSpace(*req.Title)
	}
	if req.Amount != nil {
		existing.Amount = *req.Amount
	}
	if req.Category != nil {
		existing.Category = *req.Category
	}
	if req.Date != nil {
		existing.Date = *req.Date
	}
	if req.Note != nil { // handles setting to ""
		existing.Note = req.Note
	}

	if err := validateExpenseFields(existing.Title, existing.Amount, existing.Category, existing.Note); err != nil {
		return nil, err
	}

	existing.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update expense in repo: %w", err)
	}
	return existing, nil
}

func (s *expenseService) Delete(ctx context.Context, ownerID, expenseID uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, expenseID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to find expense for deletion: %w", err)
	}
	if existing == nil {
		return ErrExpenseNotFound
	}

	if err := s.repo.Delete(ctx, expenseID, ownerID); err != nil {
		return fmt.Errorf("failed to delete expense in repo: %w", err)
	}
	return nil
}

// Stats aggregates the owner's expenses against the caller-supplied
// reference instant. Each call re-reads the storage port, so the report is
// not atomic against concurrent mutation by the same user; that is an
// accepted consistency boundary for a dashboard read model.
func (s *expenseService) Stats(ctx context.Context, ownerID uuid.UUID, now time.Time) (*model.ExpenseStats, error) {
	expenses, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for stats: %w", err)
	}
	return s.engine.Compute(expenses, now), nil
}

// BudgetProgress combines the owner's current-month spend with their
// configured monthly budget.
func (s *expenseService) BudgetProgress(ctx context.Context, ownerID uuid.UUID, now time.Time) (*model.BudgetProgress, error) {
	user, err := s.userRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for budget progress: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	expenses, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses for budget progress: %w", err)
	}
	return s.budget.Progress(expenses, user.MonthlyBudget, now), nil
}

// ExportCSV writes every expense matching the filter, in filter order,
// ignoring pagination.
func (s *expenseService) ExportCSV(ctx context.Context, ownerID uuid.UUID, filter model.ExpenseFilter) (*bytes.Buffer, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch expenses for CSV export: %w", err)
	}
	matched := filterAndSort(expenses, filter)

	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)

	header := []string{"ID", "Title", "Amount", "Category", "Date", "Note", "CreatedAt"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range matched {
		var note string
		if e.Note != nil {
			note = *e.Note
		}
		row := []string{
			e.ID.String(),
			e.Title,
			e.Amount.String(),
			e.Category,
			e.Date.Format(time.RFC3339),
			note,
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV writer: %w", err)
	}
	return buffer, nil
}
