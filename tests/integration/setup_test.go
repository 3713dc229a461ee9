package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"spendwise/internal/handlers"
	"spendwise/internal/logger"
	"spendwise/internal/middleware"
	"spendwise/internal/models"
	"spendwise/internal/notify"
	"spendwise/internal/services"
	"spendwise/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
	Alerts *alertRecorder
}

// alertRecorder captures dispatched budget alerts.
type alertRecorder struct {
	alerts []notify.Alert
}

func (r *alertRecorder) Dispatch(alert notify.Alert) {
	r.alerts = append(r.alerts, alert)
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.CategoryBudget{},
		&models.Expense{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	alerts := &alertRecorder{}

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	budgetService := services.NewBudgetService(db, alerts)
	expenseService := services.NewExpenseService(db, budgetService)
	analyticsService := services.NewAnalyticsService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, analyticsService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	users := protected.Group("/users")
	users.GET("/me", authHandler.GetProfile)
	users.PUT("/me", authHandler.UpdateProfile)
	users.PUT("/me/password", authHandler.ChangePassword)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/summary", expenseHandler.GetSummary)
	expenses.GET("/analytics", expenseHandler.GetAnalytics)
	expenses.GET("/:id", expenseHandler.GetExpenseByID)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	return &testApp{DB: db, Router: router, Alerts: alerts}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":"Test User","email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createExpense creates an expense over the API and returns its ID.
func (app *testApp) createExpense(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	expense := result["expense"].(map[string]interface{})
	return expense["id"].(string)
}
