package services

import (
	"time"

	"spendwise/internal/models"
	"spendwise/internal/notify"
	"spendwise/internal/pagination"
)

// ProfileUpdate holds optional profile fields; nil means "leave unchanged".
type ProfileUpdate struct {
	Name                        *string
	Email                       *string
	Currency                    *string
	Theme                       *string
	DefaultCategory             *string
	PushNotificationsEnabled    *bool
	MonthlyNotificationsEnabled *bool
	BudgetAlertEnabled          *bool
	MonthlyBudget               *float64
	// CategoryBudgets replaces the user's per-category limits wholesale
	// when non-nil, mirroring how clients submit the full map.
	CategoryBudgets map[models.Category]float64
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateProfile(userID string, fields ProfileUpdate) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
}

// ExpenseFilter holds optional filter parameters for listing expenses.
// All set filters combine with logical AND.
type ExpenseFilter struct {
	// Search matches case-insensitively against title, description, or
	// category (OR across the three).
	Search    string
	Category  *models.Category
	From      *time.Time
	To        *time.Time
	MinAmount *float64
	MaxAmount *float64
}

// SortSpec names the sort column and direction for a listing.
type SortSpec struct {
	Field      string
	Descending bool
}

// NewExpense carries the fields for creating an expense.
type NewExpense struct {
	Title       string
	Amount      float64
	Category    models.Category
	Description string
	Date        time.Time
	TimeOfDay   string
	Tags        []string
}

// ExpenseUpdate holds optional expense fields; nil means "leave unchanged".
// The owner is not represented here: it can never change.
type ExpenseUpdate struct {
	Title       *string
	Amount      *float64
	Category    *models.Category
	Date        *time.Time
	TimeOfDay   *string
	Description *string
	Tags        *[]string
	Archived    *bool
}

// ExpenseServicer defines the contract for expense CRUD and querying.
type ExpenseServicer interface {
	CreateExpense(userID string, in NewExpense) (*models.Expense, error)
	ListExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter, sort SortSpec) (*pagination.PageResponse[models.Expense], error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, fields ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// CategoryStat is one category's share of a summary window.
type CategoryStat struct {
	Total      float64 `json:"total"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Summary aggregates a user's spending over a time window.
type Summary struct {
	TotalSpent            float64                          `json:"total_spent"`
	TotalCount            int64                            `json:"total_count"`
	AveragePerTransaction float64                          `json:"average_per_transaction"`
	CategoryBreakdown     map[models.Category]CategoryStat `json:"category_breakdown"`
}

// DailyTotal is one populated day in the daily spending series.
type DailyTotal struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// Summary periods.
const (
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// AnalyticsServicer defines the contract for read-only aggregation.
type AnalyticsServicer interface {
	GetSummary(userID, period string, ref time.Time) (*Summary, error)
	GetDailyTotals(userID string, from, to time.Time) ([]DailyTotal, error)
}

// AlertDispatcher queues a notification for asynchronous delivery.
type AlertDispatcher interface {
	Dispatch(alert notify.Alert)
}

// BudgetServicer evaluates budget thresholds when an expense is recorded.
type BudgetServicer interface {
	// ExpenseRecorded is best-effort: it never returns an error and must
	// never prevent the expense write from succeeding.
	ExpenseRecorded(expense *models.Expense)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
