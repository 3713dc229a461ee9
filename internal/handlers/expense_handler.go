package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

// analyticsDefaultWindow is the lookback used when the caller gives no
// date range for the daily series.
const analyticsDefaultWindow = 30 * 24 * time.Hour

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService   services.ExpenseServicer
	analyticsService services.AnalyticsServicer
	auditService     services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, analyticsService services.AnalyticsServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:   expenseService,
		analyticsService: analyticsService,
		auditService:     auditService,
	}
}

// CreateExpenseRequest represents the request payload for creating an expense.
type CreateExpenseRequest struct {
	Title       string   `json:"title" binding:"required,min=3,max=60"`
	Amount      float64  `json:"amount" binding:"required,gt=0,lte=9999999.99"`
	Category    string   `json:"category" binding:"required,expense_category"`
	Description string   `json:"description" binding:"max=500"`
	Date        *string  `json:"date"`
	Time        string   `json:"time"`
	Tags        []string `json:"tags"`
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Record a new expense. May trigger budget alerts as a side effect.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	expense, err := h.expenseService.CreateExpense(userID, services.NewExpense{
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    models.Category(req.Category),
		Description: req.Description,
		Date:        date,
		TimeOfDay:   req.Time,
		Tags:        req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"category": req.Category, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// ListExpenses handles the filtered, sorted, paginated expense listing
// @Summary     List expenses
// @Description Get a paginated list of the authenticated user's expenses with optional filters
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       limit      query int    false "Items per page (default 20, max 100)"
// @Param       sort       query string false "Sort field: date, amount, title, category, created_at (default date)"
// @Param       order      query string false "Sort order: asc or desc (default desc)"
// @Param       search     query string false "Case-insensitive match against title, description, or category"
// @Param       category   query string false "Exact category, or All to disable the filter"
// @Param       start_date query string false "Inclusive lower date bound (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "Inclusive upper date bound, normalized to end of day"
// @Param       min_amount query number false "Inclusive minimum amount"
// @Param       max_amount query number false "Inclusive maximum amount"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseExpenseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sort, err := parseSortSpec(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.ListExpenses(userID, page, filter, sort)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseExpenseFilter(c *gin.Context) (services.ExpenseFilter, error) {
	var filter services.ExpenseFilter

	filter.Search = c.Query("search")

	// "All" is the client's sentinel for "no category filter".
	if v := c.Query("category"); v != "" && v != "All" {
		category := models.Category(v)
		if !category.Valid() {
			return filter, apperrors.ErrInvalidCategory
		}
		filter.Category = &category
	}

	if v := c.Query("start_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.From = &t
	}

	if v := c.Query("end_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.To = &t
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}

	if v := c.Query("max_amount"); v != "" {
		amt, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}

func parseSortSpec(c *gin.Context) (services.SortSpec, error) {
	spec := services.SortSpec{
		Field:      c.DefaultQuery("sort", "date"),
		Descending: true,
	}
	switch c.DefaultQuery("order", "desc") {
	case "asc":
		spec.Descending = false
	case "desc":
	default:
		return spec, apperrors.WithMessage(apperrors.ErrInvalidInput, "order must be asc or desc")
	}
	return spec, nil
}

// GetSummary handles period summary requests
// @Summary     Get spending summary
// @Description Get totals, average, and category breakdown for a period
// @Tags        expenses,analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "Summary period: month, year, or all (default month)"
// @Param       date   query string false "Reference date inside the period (RFC3339 or YYYY-MM-DD; invalid values fall back to today)"
// @Success     200 {object} services.Summary "Spending summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period := c.DefaultQuery("period", "month")

	// An unparseable reference date is not an error for summaries; the
	// window simply anchors on today.
	ref := time.Now()
	if v := c.Query("date"); v != "" {
		if parsed, parseErr := parseFlexibleTime(v); parseErr == nil {
			ref = parsed
		}
	}

	summary, err := h.analyticsService.GetSummary(userID, period, ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetAnalytics handles daily time-series requests
// @Summary     Get daily analytics
// @Description Get per-day spending totals for charting. Days without expenses are omitted.
// @Tags        expenses,analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Window start (default 30 days ago)"
// @Param       end_date   query string false "Window end (default now)"
// @Success     200 {object} map[string]interface{} "Daily totals ordered by date ascending"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/analytics [get]
func (h *ExpenseHandler) GetAnalytics(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	end := time.Now()
	start := end.Add(-analyticsDefaultWindow)

	if v := c.Query("start_date"); v != "" {
		t, parseErr := parseFlexibleTime(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		start = t
	}

	if v := c.Query("end_date"); v != "" {
		t, parseErr := parseFlexibleTime(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		end = t
	}

	totals, err := h.analyticsService.GetDailyTotals(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": gin.H{"daily_totals": totals}})
}

// GetExpenseByID handles the retrieval of a single expense
// @Summary     Get expense by ID
// @Description Get a single expense owned by the authenticated user
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parseExpenseID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpenseRequest represents the request payload for updating an expense.
type UpdateExpenseRequest struct {
	Title       *string   `json:"title" binding:"omitempty,min=3,max=60"`
	Amount      *float64  `json:"amount" binding:"omitempty,gt=0,lte=9999999.99"`
	Category    *string   `json:"category" binding:"omitempty,expense_category"`
	Description *string   `json:"description" binding:"omitempty,max=500"`
	Date        *string   `json:"date"`
	Time        *string   `json:"time"`
	Tags        *[]string `json:"tags"`
	Archived    *bool     `json:"archived"`
}

// UpdateExpense handles partial expense updates
// @Summary     Update expense
// @Description Update fields of an existing expense. The owner cannot change.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to update"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parseExpenseID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.ExpenseUpdate{
		Title:       req.Title,
		Amount:      req.Amount,
		Description: req.Description,
		TimeOfDay:   req.Time,
		Tags:        req.Tags,
		Archived:    req.Archived,
	}

	if req.Category != nil {
		category := models.Category(*req.Category)
		fields.Category = &category
	}

	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD"))
			return
		}
		fields.Date = &parsed
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense handles the deletion of an expense
// @Summary     Delete expense
// @Description Permanently delete an expense by ID
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Owned by another user"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parseExpenseID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Expense removed"})
}
