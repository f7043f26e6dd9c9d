package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"spendtrack/internal/model"
)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock
// satisfies it too, so repository tests run without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ExpenseRepository is the storage port for expense records. ListByOwner
// returns the owner's full raw set; filtering, ordering and aggregation
// happen in the service layer so they behave identically regardless of
// which store backs this interface.
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Expense, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Expense, error)
	Update(ctx context.Context, expense *model.Expense) error
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type expenseRepository struct {
	db DB
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(db DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

const expenseColumns = "id, user_id, title, amount, category, date, note, created_at, updated_at"

// Create inserts a new expense into the database
func (r *expenseRepository) Create(ctx context.Context, e *model.Expense) error {
	sql := `INSERT INTO expenses (id, user_id, title, amount, category, date, note, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, sql, e.ID, e.OwnerID, e.Title, e.Amount, e.Category, e.Date, e.Note, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// FindByID retrieves an expense by ID, scoped to its owner. A record that
// exists but belongs to another user is reported as not found.
func (r *expenseRepository) FindByID(ctx context.Context, id, ownerID uuid.UUID) (*model.Expense, error) {
	e := &model.Expense{}
	sql := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1 AND user_id = $2`
	err := r.db.QueryRow(ctx, sql, id, ownerID).Scan(
		&e.ID, &e.OwnerID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.Note, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to find expense by ID: %w", err)
	}
	return e, nil
}

// ListByOwner retrieves every expense owned by the given user.
func (r *expenseRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Expense, error) {
	sql := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 ORDER BY date DESC, id ASC`
	rows, err := r.db.Query(ctx, sql, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses by owner: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		var e model.Expense
		if err := rows.Scan(
			&e.ID, &e.OwnerID, &e.Title, &e.Amount, &e.Category, &e.Date, &e.Note, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense rows: %w", err)
	}
	return expenses, nil
}

// Update modifies an existing expense, scoped to its owner.
func (r *expenseRepository) Update(ctx context.Context, e *model.Expense) error {
	sql := `UPDATE expenses
            SET title = $1, amount = $2, category = $3, date = $4, note = $5, updated_at = NOW()
            WHERE id = $6 AND user_id = $7 RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql, e.Title, e.Amount, e.Category, e.Date, e.Note, e.ID, e.OwnerID).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("expense not found or not owned by user for update")
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// Delete removes an expense, scoped to its owner.
func (r *expenseRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	sql := `DELETE FROM expenses WHERE id = $1 AND user_id = $2`
	cmdTag, err := r.db.Exec(ctx, sql, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found for deletion")
	}
	return nil
}
