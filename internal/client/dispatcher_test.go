package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/model"
)

// fastPacing keeps test runs quick; pacing behavior itself is covered in
// pacing_test.go.
func fastPacing() *PacingPolicy {
	p := NewPacingPolicy()
	for _, kind := range []OpKind{OpList, OpGet, OpCreate, OpUpdate, OpDelete, OpStats, OpBudget} {
		p.SetSpacing(kind, time.Millisecond)
	}
	return p
}

func newTestClient(t *testing.T, baseURL string, onAuthError func()) *Client {
	t.Helper()
	c := New(Config{
		BaseURL:     baseURL,
		Token:       func() string { return "test-token" },
		OnAuthError: onAuthError,
		Backoff:     20 * time.Millisecond,
		Pacing:      fastPacing(),
	})
	t.Cleanup(c.Close)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sampleExpense() model.Expense {
	return model.Expense{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Title:    "Coffee",
		Amount:   decimal.RequireFromString("4.50"),
		Category: model.CategoryFood,
		Date:     time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestClientListExpenses(t *testing.T) {
	var gotAuth string
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		writeJSON(w, http.StatusOK, ExpenseList{
			Expenses:   []model.Expense{sampleExpense()},
			Pagination: Pagination{Page: 2, Limit: 10, Total: 25, TotalPages: 3},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	list, err := c.ListExpenses(ListParams{Page: 2, Limit: 10, Category: model.CategoryFood})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "category=Food")
	assert.Len(t, list.Expenses, 1)
	assert.Equal(t, 3, list.Pagination.TotalPages)
}

func TestDispatcherSingleFlight(t *testing.T) {
	var inFlight, maxInFlight int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			cur := atomic.LoadInt64(&maxInFlight)
			if n <= cur || atomic.CompareAndSwapInt64(&maxInFlight, cur, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		writeJSON(w, http.StatusOK, model.ExpenseStats{})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Stats()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&maxInFlight), "two requests were in flight at once")
}

func TestDispatcherRetriesRateLimited(t *testing.T) {
	// The first two attempts are rejected with 429; the request must
	// survive both and settle successfully on the third.
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) <= 2 {
			writeJSON(w, http.StatusTooManyRequests, gin429Body())
			return
		}
		writeJSON(w, http.StatusOK, model.BudgetProgress{
			Spent:      decimal.RequireFromString("250"),
			Budget:     decimal.RequireFromString("200"),
			Remaining:  decimal.Zero,
			Percentage: decimal.RequireFromString("100"),
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)
	progress, err := c.BudgetProgress()
	require.NoError(t, err)
	assert.Equal(t, int64(3), atomic.LoadInt64(&attempts))
	assert.True(t, progress.Percentage.Equal(decimal.RequireFromString("100")))
}

func gin429Body() map[string]string {
	return map[string]string{"error": "Too many requests, please retry shortly"}
}

func TestDispatcherRetryDoesNotBlockQueue(t *testing.T) {
	// Scenario: R1 (stats) is rate-limited and enters its backoff
	// window; R2 (list), enqueued meanwhile, may be served before R1's
	// retry. Either interleaving is fine; both requests must settle.
	var statsAttempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/expenses/stats":
			if atomic.AddInt64(&statsAttempts, 1) == 1 {
				writeJSON(w, http.StatusTooManyRequests, gin429Body())
				return
			}
			writeJSON(w, http.StatusOK, model.ExpenseStats{})
		default:
			writeJSON(w, http.StatusOK, ExpenseList{})
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	statsDone := make(chan error, 1)
	go func() {
		_, err := c.Stats()
		statsDone <- err
	}()

	// Give R1 time to hit the limiter and enter backoff.
	time.Sleep(10 * time.Millisecond)

	_, err := c.ListExpenses(ListParams{})
	require.NoError(t, err, "R2 must not be stuck behind a backing-off retry")

	select {
	case err := <-statsDone:
		require.NoError(t, err, "R1 must eventually be delivered")
	case <-time.After(2 * time.Second):
		t.Fatal("rate-limited request was lost")
	}
	assert.Equal(t, int64(2), atomic.LoadInt64(&statsAttempts))
}

func TestDispatcherClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/expenses":
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sortBy: must be one of date, amount, title", "field": "sortBy"})
		case "/expenses/stats":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve stats"})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "expense not found"})
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	t.Run("400 surfaces as ValidationError naming the field", func(t *testing.T) {
		_, err := c.ListExpenses(ListParams{SortBy: "color"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "sortBy", vErr.Field)
	})

	t.Run("404 surfaces as NotFoundError", func(t *testing.T) {
		_, err := c.GetExpense(uuid.New())
		var nfErr *NotFoundError
		assert.ErrorAs(t, err, &nfErr)
	})

	t.Run("5xx surfaces immediately as ServerError, never retried", func(t *testing.T) {
		_, err := c.Stats()
		var sErr *ServerError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, http.StatusInternalServerError, sErr.StatusCode)
	})
}

func TestDispatcherAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
	}))
	defer srv.Close()

	var hookCalls int64
	c := newTestClient(t, srv.URL, func() { atomic.AddInt64(&hookCalls, 1) })

	_, err := c.Stats()
	var aErr *AuthError
	require.ErrorAs(t, err, &aErr)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hookCalls), "401 must signal the session collaborator")
}

func TestDispatcherNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestClient(t, srv.URL, nil)
	_, err := c.Stats()
	var nErr *NetworkError
	assert.ErrorAs(t, err, &nErr)
}

func TestDispatcherClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.ExpenseStats{})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Pacing: fastPacing()})
	c.Close()

	_, err := c.Stats()
	assert.ErrorIs(t, err, ErrDispatcherClosed)

	// Closing twice is fine.
	c.Close()
}

func TestDispatcherFIFOForUnretriedRequests(t *testing.T) {
	var mu sync.Mutex
	var served []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served = append(served, r.URL.Query().Get("search"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, ExpenseList{})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, nil)

	// Serialize enqueues from one goroutine by waiting for each result:
	// each call settles before the next is queued, so service order must
	// match call order.
	for _, tag := range []string{"first", "second", "third"} {
		_, err := c.ListExpenses(ListParams{Search: tag})
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, served)
}
