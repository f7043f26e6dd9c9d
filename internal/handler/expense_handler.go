package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spendtrack/internal/middleware"
	"spendtrack/internal/model"
	"spendtrack/internal/service"
)

// ExpenseHandler handles expense related requests
type ExpenseHandler struct {
	service service.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(s service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: s}
}

// Helper to get authenticated user ID from context
func getAuthUserID(c *gin.Context) (uuid.UUID, error) {
	userID, ok := middleware.GetAuthUserID(c)
	if !ok {
		return uuid.Nil, errors.New("user ID not found in context")
	}
	return userID, nil
}

// parseFilter maps list query parameters 1:1 onto an ExpenseFilter.
// Values that do not parse at all are rejected here; semantic validation
// (ranges, enums) happens in the service so it applies to every caller.
func parseFilter(c *gin.Context) (model.ExpenseFilter, error) {
	filter := model.DefaultFilter()

	if pageParam := c.Query("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return filter, model.NewValidationError("page", "must be an integer")
		}
		filter.Page = page
	}
	if limitParam := c.Query("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return filter, model.NewValidationError("limit", "must be an integer")
		}
		filter.Limit = limit
	}
	if sortBy := c.Query("sortBy"); sortBy != "" {
		filter.SortBy = sortBy
	}
	if sortOrder := c.Query("sortOrder"); sortOrder != "" {
		filter.SortOrder = sortOrder
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if search := c.Query("search"); search != "" {
		filter.Search = &search
	}
	if startDateParam := c.Query("startDate"); startDateParam != "" {
		parsedDate, err := time.Parse("2006-01-02", startDateParam)
		if err != nil {
			return filter, model.NewValidationError("startDate", "use YYYY-MM-DD")
		}
		filter.StartDate = &parsedDate
	}
	if endDateParam := c.Query("endDate"); endDateParam != "" {
		parsedDate, err := time.Parse("2006-01-02", endDateParam)
		if err != nil {
			return filter, model.NewValidationError("endDate", "use YYYY-MM-DD")
		}
		// Adjust end date to include the whole day
		endOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 23, 59, 59, 999999999, parsedDate.Location())
		filter.EndDate = &endOfDay
	}

	return filter, nil
}

// respondServiceError maps pipeline errors onto HTTP statuses. Validation
// failures surface verbatim with the offending field named.
func respondServiceError(c *gin.Context, err error, action string) {
	var vErr *model.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error(), "field": vErr.Field})
		return
	}
	if errors.Is(err, service.ErrExpenseNotFound) || errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	log.Printf("Error %s: %v", action, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
}

func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	expense, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, "create expense")
		return
	}
	c.JSON(http.StatusCreated, expense)
}

func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondServiceError(c, err, "parse expense filter")
		return
	}

	page, err := h.service.List(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err, "retrieve expenses")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses": page.Expenses,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      page.Total,
			"totalPages": page.TotalPages,
		},
	})
}

func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
		return
	}

	expense, err := h.service.GetByID(c.Request.Context(), userID, expenseID)
	if err != nil {
		respondServiceError(c, err, "retrieve expense")
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
		return
	}

	var req model.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	expense, err := h.service.Update(c.Request.Context(), userID, expenseID, req)
	if err != nil {
		respondServiceError(c, err, "update expense")
		return
	}
	c.JSON(http.StatusOK, expense)
}

func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, expenseID); err != nil {
		respondServiceError(c, err, "delete expense")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

func (h *ExpenseHandler) GetStats(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondServiceError(c, err, "retrieve stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ExpenseHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	progress, err := h.service.BudgetProgress(c.Request.Context(), userID, time.Now())
	if err != nil {
		respondServiceError(c, err, "retrieve budget progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *ExpenseHandler) ExportExpensesCSV(c *gin.Context) {
	userID, err := getAuthUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		respondServiceError(c, err, "parse expense filter")
		return
	}

	csvBuffer, err := h.service.ExportCSV(c.Request.Context(), userID, filter)
	if err != nil {
		respondServiceError(c, err, "export expenses to CSV")
		return
	}

	fileName := fmt.Sprintf("expenses_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Data(http.StatusOK, "text/csv", csvBuffer.Bytes())
}

// RegisterExpenseRoutes registers expense routes
func (h *ExpenseHandler) RegisterExpenseRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc, rateLimitMW gin.HandlerFunc) {
	routes := rg.Group("/expenses")
	routes.Use(authMW) // All routes in this group require authentication
	if rateLimitMW != nil {
		routes.Use(rateLimitMW)
	}
	{
		routes.POST("", h.CreateExpense)
		routes.GET("", h.GetExpenses)
		routes.GET("/stats", h.GetStats)
		routes.GET("/budget-progress", h.GetBudgetProgress)
		routes.GET("/export/csv", h.ExportExpensesCSV)
		routes.GET("/:id", h.GetExpenseByID)
		routes.PUT("/:id", h.UpdateExpense)
		routes.DELETE("/:id", h.DeleteExpense)
	}
}
