package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/notify"
)

// budgetService checks recorded expenses against the owner's budgets and
// hands threshold alerts to the dispatcher.
type budgetService struct {
	db     *gorm.DB
	alerts AlertDispatcher
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, alerts AlertDispatcher) BudgetServicer {
	return &budgetService{db: db, alerts: alerts}
}

// ExpenseRecorded evaluates the overall and per-category budgets for the
// month the expense falls in. Every failure here is swallowed and logged:
// alerting sits off the write path and must never undo a recorded expense.
func (s *budgetService) ExpenseRecorded(expense *models.Expense) {
	var user models.User
	if err := s.db.Preload("CategoryBudgets").First(&user, "id = ?", expense.UserID).Error; err != nil {
		logger.Get().Errorw("budget check skipped: failed to load user",
			"error", err, "user_id", expense.UserID)
		return
	}

	if !user.BudgetAlertEnabled {
		return
	}

	start, end := monthWindow(expense.Date)

	// Totals exclude the expense being evaluated so that "projected"
	// means total-before plus the new amount.
	monthTotal, err := s.sumExcluding(expense, start, end, nil)
	if err != nil {
		logger.Get().Errorw("budget check skipped: month total query failed",
			"error", err, "user_id", expense.UserID)
		return
	}
	categoryTotal, err := s.sumExcluding(expense, start, end, &expense.Category)
	if err != nil {
		logger.Get().Errorw("budget check skipped: category total query failed",
			"error", err, "user_id", expense.UserID)
		return
	}

	alerts := EvaluateBudgets(user.MonthlyBudget, user.BudgetMap(), monthTotal, categoryTotal, expense.Amount, expense.Category)
	for _, alert := range alerts {
		s.alerts.Dispatch(toNotification(&user, alert))
	}
}

func (s *budgetService) sumExcluding(expense *models.Expense, start, end time.Time, category *models.Category) (float64, error) {
	q := s.db.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND id != ? AND date BETWEEN ? AND ?", expense.UserID, expense.ID, start, end)
	if category != nil {
		q = q.Where("category = ?", *category)
	}
	var total float64
	if err := q.Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func toNotification(user *models.User, alert BudgetAlert) notify.Alert {
	switch alert.Kind {
	case AlertCategoryLimit:
		return notify.Alert{
			UserID: user.ID,
			Kind:   notify.KindCategoryLimit,
			Title:  fmt.Sprintf("%s limit reached", alert.Category),
			Body: fmt.Sprintf("%s spending is now %s%.2f, over your %s%.2f limit.",
				alert.Category, user.Currency, alert.Projected, user.Currency, alert.Limit),
		}
	default:
		return notify.Alert{
			UserID: user.ID,
			Kind:   notify.KindBudgetExceeded,
			Title:  "Monthly budget exceeded",
			Body: fmt.Sprintf("You've now spent %s%.2f of your %s%.2f monthly budget.",
				user.Currency, alert.Projected, user.Currency, alert.Limit),
		}
	}
}
