package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendtrack/internal/model"
)

// Config configures an expense API client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8080/api".
	BaseURL string
	// HTTPClient is optional; a 30s-timeout client is used when nil.
	HTTPClient *http.Client
	// Token supplies the bearer token for each attempt. It is re-read
	// per attempt so refreshed tokens take effect on retries.
	Token func() string
	// OnAuthError is invoked when the server answers 401, so the session
	// owner can invalidate local credentials. Optional.
	OnAuthError func()
	// Backoff is the delay before a rate-limited request is reinserted
	// at the head of the queue. Zero means DefaultRetryBackoff.
	Backoff time.Duration
	// Pacing overrides the default per-operation send spacing. Optional.
	Pacing *PacingPolicy
}

// Client is a typed client for the expense API. All calls funnel through
// one dispatcher, so they are serialized, paced, and transparently
// retried on rate limiting.
type Client struct {
	dispatcher *Dispatcher
}

// New creates a Client and starts its dispatcher.
func New(cfg Config) *Client {
	return &Client{
		dispatcher: newDispatcher(
			strings.TrimRight(cfg.BaseURL, "/"),
			cfg.HTTPClient,
			cfg.Token,
			cfg.Pacing,
			cfg.Backoff,
			cfg.OnAuthError,
		),
	}
}

// Close shuts the dispatcher down. Requests still pending settle with
// ErrDispatcherClosed.
func (c *Client) Close() {
	c.dispatcher.Close()
}

// ListParams mirror the list endpoint's query parameters. Zero values are
// omitted and the server applies its defaults.
type ListParams struct {
	Category  string
	Search    string
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sortOrder", p.SortOrder)
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Pagination describes the page the server returned.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ExpenseList is the list endpoint's response.
type ExpenseList struct {
	Expenses   []model.Expense `json:"expenses"`
	Pagination Pagination      `json:"pagination"`
}

func (c *Client) call(kind OpKind, method, path string, query url.Values, payload any, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	res := c.dispatcher.enqueue(&pendingRequest{
		kind:   kind,
		method: method,
		path:   path,
		query:  query,
		body:   body,
	})
	if res.err != nil {
		return res.err
	}
	if out != nil {
		if err := json.Unmarshal(res.body, out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}
	return nil
}

// ListExpenses fetches one filtered, sorted page of expenses.
func (c *Client) ListExpenses(params ListParams) (*ExpenseList, error) {
	var list ExpenseList
	if err := c.call(OpList, http.MethodGet, "/expenses", params.values(), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetExpense fetches a single expense by ID.
func (c *Client) GetExpense(id uuid.UUID) (*model.Expense, error) {
	var expense model.Expense
	if err := c.call(OpGet, http.MethodGet, "/expenses/"+id.String(), nil, nil, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// CreateExpense creates a new expense.
func (c *Client) CreateExpense(req model.CreateExpenseRequest) (*model.Expense, error) {
	var expense model.Expense
	if err := c.call(OpCreate, http.MethodPost, "/expenses", nil, req, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// UpdateExpense applies a partial update to an expense.
func (c *Client) UpdateExpense(id uuid.UUID, req model.UpdateExpenseRequest) (*model.Expense, error) {
	var expense model.Expense
	if err := c.call(OpUpdate, http.MethodPut, "/expenses/"+id.String(), nil, req, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// DeleteExpense removes an expense.
func (c *Client) DeleteExpense(id uuid.UUID) error {
	return c.call(OpDelete, http.MethodDelete, "/expenses/"+id.String(), nil, nil, nil)
}

// Stats fetches the aggregated dashboard statistics.
func (c *Client) Stats() (*model.ExpenseStats, error) {
	var stats model.ExpenseStats
	if err := c.call(OpStats, http.MethodGet, "/expenses/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// BudgetProgress fetches the current-month budget report.
func (c *Client) BudgetProgress() (*model.BudgetProgress, error) {
	var progress model.BudgetProgress
	if err := c.call(OpBudget, http.MethodGet, "/expenses/budget-progress", nil, nil, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}
