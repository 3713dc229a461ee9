package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:                        "Test User",
		Email:                       email,
		Password:                    string(hash),
		Currency:                    "INR",
		Theme:                       "light",
		DefaultCategory:             string(models.CategoryOther),
		PushNotificationsEnabled:    true,
		MonthlyNotificationsEnabled: true,
		BudgetAlertEnabled:          true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExpense creates an expense dated now in the Other category.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string) *models.Expense {
	t.Helper()
	return CreateTestExpenseWith(t, db, userID, models.CategoryOther, 100, time.Now())
}

// CreateTestExpenseWith creates an expense with the given category, amount,
// and date.
func CreateTestExpenseWith(t *testing.T, db *gorm.DB, userID string, category models.Category, amount float64, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:   userID,
		Title:    fmt.Sprintf("Expense %d", nextID()),
		Amount:   amount,
		Category: category,
		Date:     date,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// SetMonthlyBudget updates the user's overall monthly budget.
func SetMonthlyBudget(t *testing.T, db *gorm.DB, userID string, limit float64) {
	t.Helper()

	if err := db.Model(&models.User{}).Where("id = ?", userID).
		Update("monthly_budget", limit).Error; err != nil {
		t.Fatalf("failed to set monthly budget: %v", err)
	}
}

// SetCategoryBudget creates or replaces a per-category limit for the user.
func SetCategoryBudget(t *testing.T, db *gorm.DB, userID string, category models.Category, limit float64) {
	t.Helper()

	if err := db.Where("user_id = ? AND category = ?", userID, category).
		Delete(&models.CategoryBudget{}).Error; err != nil {
		t.Fatalf("failed to clear category budget: %v", err)
	}
	cb := &models.CategoryBudget{UserID: userID, Category: category, Limit: limit}
	if err := db.Create(cb).Error; err != nil {
		t.Fatalf("failed to create category budget: %v", err)
	}
}
