package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
	"spendwise/internal/services"
)

const testExpenseID = "0195a7f0-0000-7000-8000-0000000000aa"

// --- mock services ---

type mockExpenseService struct {
	createExpenseFn  func(userID string, in services.NewExpense) (*models.Expense, error)
	listExpensesFn   func(userID string, page pagination.PageRequest, filter services.ExpenseFilter, sort services.SortSpec) (*pagination.PageResponse[models.Expense], error)
	getExpenseByIDFn func(userID, expenseID string) (*models.Expense, error)
	updateExpenseFn  func(userID, expenseID string, fields services.ExpenseUpdate) (*models.Expense, error)
	deleteExpenseFn  func(userID, expenseID string) error
}

func (m *mockExpenseService) CreateExpense(userID string, in services.NewExpense) (*models.Expense, error) {
	if m.createExpenseFn != nil {
		return m.createExpenseFn(userID, in)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) ListExpenses(userID string, page pagination.PageRequest, filter services.ExpenseFilter, sort services.SortSpec) (*pagination.PageResponse[models.Expense], error) {
	if m.listExpensesFn != nil {
		return m.listExpensesFn(userID, page, filter, sort)
	}
	resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockExpenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	if m.getExpenseByIDFn != nil {
		return m.getExpenseByIDFn(userID, expenseID)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) UpdateExpense(userID, expenseID string, fields services.ExpenseUpdate) (*models.Expense, error) {
	if m.updateExpenseFn != nil {
		return m.updateExpenseFn(userID, expenseID, fields)
	}
	return &models.Expense{}, nil
}

func (m *mockExpenseService) DeleteExpense(userID, expenseID string) error {
	if m.deleteExpenseFn != nil {
		return m.deleteExpenseFn(userID, expenseID)
	}
	return nil
}

var _ services.ExpenseServicer = (*mockExpenseService)(nil)

type mockAnalyticsService struct {
	getSummaryFn     func(userID, period string, ref time.Time) (*services.Summary, error)
	getDailyTotalsFn func(userID string, from, to time.Time) ([]services.DailyTotal, error)
}

func (m *mockAnalyticsService) GetSummary(userID, period string, ref time.Time) (*services.Summary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID, period, ref)
	}
	return &services.Summary{CategoryBreakdown: map[models.Category]services.CategoryStat{}}, nil
}

func (m *mockAnalyticsService) GetDailyTotals(userID string, from, to time.Time) ([]services.DailyTotal, error) {
	if m.getDailyTotalsFn != nil {
		return m.getDailyTotalsFn(userID, from, to)
	}
	return []services.DailyTotal{}, nil
}

var _ services.AnalyticsServicer = (*mockAnalyticsService)(nil)

func setupExpenseRouter(handler *ExpenseHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/expenses", handler.CreateExpense)
	auth.GET("/expenses", handler.ListExpenses)
	auth.GET("/expenses/summary", handler.GetSummary)
	auth.GET("/expenses/analytics", handler.GetAnalytics)
	auth.GET("/expenses/:id", handler.GetExpenseByID)
	auth.PUT("/expenses/:id", handler.UpdateExpense)
	auth.DELETE("/expenses/:id", handler.DeleteExpense)
	return r
}

// --- tests ---

func TestExpenseHandler_CreateExpense(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockExpenseService{
			createExpenseFn: func(userID string, in services.NewExpense) (*models.Expense, error) {
				return &models.Expense{
					Base:     models.Base{ID: testExpenseID},
					UserID:   userID,
					Title:    in.Title,
					Amount:   in.Amount,
					Category: in.Category,
				}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "POST", "/expenses",
			`{"title":"Groceries","amount":45.5,"category":"Food","date":"2025-03-10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		expense := result["expense"].(map[string]interface{})
		if expense["amount"].(float64) != 45.5 {
			t.Errorf("expected amount 45.5, got %v", expense["amount"])
		}
	})

	t.Run("returns 400 on short title", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "POST", "/expenses", `{"title":"ab","amount":10,"category":"Food"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on unknown category", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "POST", "/expenses", `{"title":"Groceries","amount":10,"category":"Snacks"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad date", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "POST", "/expenses",
			`{"title":"Groceries","amount":10,"category":"Food","date":"10/03/2025"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_ListExpenses(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var captured services.ExpenseFilter
		var capturedSort services.SortSpec
		svc := &mockExpenseService{
			listExpensesFn: func(_ string, _ pagination.PageRequest, filter services.ExpenseFilter, sort services.SortSpec) (*pagination.PageResponse[models.Expense], error) {
				captured = filter
				capturedSort = sort
				resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET",
			"/expenses?search=cafe&category=Food&min_amount=5&max_amount=50&sort=amount&order=asc", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Search != "cafe" {
			t.Errorf("expected search cafe, got %q", captured.Search)
		}
		if captured.Category == nil || *captured.Category != models.CategoryFood {
			t.Errorf("expected Food filter, got %v", captured.Category)
		}
		if captured.MinAmount == nil || *captured.MinAmount != 5 {
			t.Errorf("expected min 5, got %v", captured.MinAmount)
		}
		if capturedSort.Field != "amount" || capturedSort.Descending {
			t.Errorf("expected amount asc, got %+v", capturedSort)
		}
	})

	t.Run("category All disables the filter", func(t *testing.T) {
		var captured services.ExpenseFilter
		svc := &mockExpenseService{
			listExpensesFn: func(_ string, _ pagination.PageRequest, filter services.ExpenseFilter, _ services.SortSpec) (*pagination.PageResponse[models.Expense], error) {
				captured = filter
				resp := pagination.NewPageResponse([]models.Expense{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses?category=All", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if captured.Category != nil {
			t.Errorf("expected no category filter, got %v", *captured.Category)
		}
	})

	t.Run("returns 400 on unknown category", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses?category=Snacks", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_CATEGORY")
	})

	t.Run("returns 400 on bad order", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses?order=sideways", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on bad min_amount", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses?min_amount=lots", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_GetSummary(t *testing.T) {
	t.Run("defaults to month period", func(t *testing.T) {
		var capturedPeriod string
		svc := &mockAnalyticsService{
			getSummaryFn: func(_, period string, _ time.Time) (*services.Summary, error) {
				capturedPeriod = period
				return &services.Summary{}, nil
			},
		}
		handler := NewExpenseHandler(&mockExpenseService{}, svc, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/summary", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if capturedPeriod != "month" {
			t.Errorf("expected default period month, got %q", capturedPeriod)
		}
	})

	t.Run("malformed date falls back to now", func(t *testing.T) {
		var capturedRef time.Time
		svc := &mockAnalyticsService{
			getSummaryFn: func(_, _ string, ref time.Time) (*services.Summary, error) {
				capturedRef = ref
				return &services.Summary{}, nil
			},
		}
		handler := NewExpenseHandler(&mockExpenseService{}, svc, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/summary?date=garbage", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if time.Since(capturedRef) > time.Minute {
			t.Errorf("expected ref near now, got %v", capturedRef)
		}
	})
}

func TestExpenseHandler_GetAnalytics(t *testing.T) {
	t.Run("defaults to last 30 days", func(t *testing.T) {
		var capturedFrom, capturedTo time.Time
		svc := &mockAnalyticsService{
			getDailyTotalsFn: func(_ string, from, to time.Time) ([]services.DailyTotal, error) {
				capturedFrom, capturedTo = from, to
				return []services.DailyTotal{}, nil
			},
		}
		handler := NewExpenseHandler(&mockExpenseService{}, svc, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/analytics", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		window := capturedTo.Sub(capturedFrom)
		if window < 29*24*time.Hour || window > 31*24*time.Hour {
			t.Errorf("expected ~30 day window, got %v", window)
		}
	})

	t.Run("returns 400 on bad start_date", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/analytics?start_date=yesterday", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_GetExpenseByID(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		svc := &mockExpenseService{
			getExpenseByIDFn: func(_, expenseID string) (*models.Expense, error) {
				return &models.Expense{Base: models.Base{ID: expenseID}, Title: "Groceries"}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/"+testExpenseID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockExpenseService{
			getExpenseByIDFn: func(_, _ string) (*models.Expense, error) {
				return nil, apperrors.ErrExpenseNotFound
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/"+testExpenseID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "EXPENSE_NOT_FOUND")
	})

	t.Run("returns 403 on foreign expense", func(t *testing.T) {
		svc := &mockExpenseService{
			getExpenseByIDFn: func(_, _ string) (*models.Expense, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "GET", "/expenses/"+testExpenseID, "")

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})
}

func TestExpenseHandler_UpdateExpense(t *testing.T) {
	t.Run("returns 200 and forwards fields", func(t *testing.T) {
		var captured services.ExpenseUpdate
		svc := &mockExpenseService{
			updateExpenseFn: func(_, expenseID string, fields services.ExpenseUpdate) (*models.Expense, error) {
				captured = fields
				return &models.Expense{Base: models.Base{ID: expenseID}}, nil
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "PUT", "/expenses/"+testExpenseID, `{"amount":35,"category":"Transport"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Amount == nil || *captured.Amount != 35 {
			t.Errorf("expected amount 35, got %v", captured.Amount)
		}
		if captured.Category == nil || *captured.Category != models.CategoryTransport {
			t.Errorf("expected Transport, got %v", captured.Category)
		}
		if captured.Title != nil {
			t.Errorf("expected title untouched, got %v", *captured.Title)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "PUT", "/expenses/123", `{"amount":35}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestExpenseHandler_DeleteExpense(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		handler := NewExpenseHandler(&mockExpenseService{}, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "DELETE", "/expenses/"+testExpenseID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockExpenseService{
			deleteExpenseFn: func(_, _ string) error {
				return apperrors.ErrExpenseNotFound
			},
		}
		handler := NewExpenseHandler(svc, &mockAnalyticsService{}, &mockAuditService{})
		r := setupExpenseRouter(handler)

		rec := doRequest(r, "DELETE", "/expenses/"+testExpenseID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
