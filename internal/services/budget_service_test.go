package services

import (
	"testing"
	"time"

	"spendwise/internal/models"
	"spendwise/internal/notify"
	"spendwise/internal/testutil"
)

// recordingDispatcher captures dispatched alerts for assertions.
type recordingDispatcher struct {
	alerts []notify.Alert
}

func (d *recordingDispatcher) Dispatch(alert notify.Alert) {
	d.alerts = append(d.alerts, alert)
}

func TestEvaluateBudgets(t *testing.T) {
	t.Run("overall_budget_exceeded", func(t *testing.T) {
		alerts := EvaluateBudgets(1000, nil, 950, 0, 100, models.CategoryFood)

		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Kind != AlertOverallBudget {
			t.Errorf("expected overall budget alert, got %s", alerts[0].Kind)
		}
		if alerts[0].Projected != 1050 {
			t.Errorf("expected projected 1050, got %v", alerts[0].Projected)
		}
	})

	t.Run("exactly_at_limit_does_not_fire", func(t *testing.T) {
		alerts := EvaluateBudgets(1000, nil, 900, 0, 100, models.CategoryFood)

		if len(alerts) != 0 {
			t.Errorf("expected no alerts at exactly the limit, got %v", alerts)
		}
	})

	t.Run("zero_limit_never_fires", func(t *testing.T) {
		alerts := EvaluateBudgets(0, map[models.Category]float64{models.CategoryFood: 0}, 100000, 100000, 100, models.CategoryFood)

		if len(alerts) != 0 {
			t.Errorf("expected zero limits to mean no limit, got %v", alerts)
		}
	})

	t.Run("category_limit_reached", func(t *testing.T) {
		limits := map[models.Category]float64{models.CategoryFood: 200}
		alerts := EvaluateBudgets(0, limits, 500, 150, 60, models.CategoryFood)

		if len(alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(alerts))
		}
		if alerts[0].Kind != AlertCategoryLimit {
			t.Errorf("expected category alert, got %s", alerts[0].Kind)
		}
		if alerts[0].Category != models.CategoryFood {
			t.Errorf("expected Food alert, got %s", alerts[0].Category)
		}
		if alerts[0].Projected != 210 {
			t.Errorf("expected projected 210, got %v", alerts[0].Projected)
		}
	})

	t.Run("other_category_limit_ignored", func(t *testing.T) {
		limits := map[models.Category]float64{models.CategoryFood: 200}
		alerts := EvaluateBudgets(0, limits, 500, 150, 60, models.CategoryTransport)

		if len(alerts) != 0 {
			t.Errorf("expected no alerts for unbudgeted category, got %v", alerts)
		}
	})

	t.Run("both_rules_fire_independently", func(t *testing.T) {
		limits := map[models.Category]float64{models.CategoryFood: 200}
		alerts := EvaluateBudgets(1000, limits, 950, 150, 100, models.CategoryFood)

		if len(alerts) != 2 {
			t.Fatalf("expected 2 alerts, got %d", len(alerts))
		}
	})
}

func TestBudgetServiceExpenseRecorded(t *testing.T) {
	t.Run("dispatches_on_exceeded_budget", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		dispatcher := &recordingDispatcher{}
		budgets := NewBudgetService(db, dispatcher)
		svc := NewExpenseService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		testutil.SetMonthlyBudget(t, db, user.ID, 100)

		date := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestExpenseWith(t, db, user.ID, models.CategoryFood, 80, date)

		_, err := svc.CreateExpense(user.ID, NewExpense{
			Title:    "Pushes over",
			Amount:   30,
			Category: models.CategoryTransport,
			Date:     date.AddDate(0, 0, 1),
		})
		testutil.AssertNoError(t, err)

		if len(dispatcher.alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(dispatcher.alerts))
		}
		if dispatcher.alerts[0].Kind != notify.KindBudgetExceeded {
			t.Errorf("expected budget_exceeded, got %s", dispatcher.alerts[0].Kind)
		}
		if dispatcher.alerts[0].UserID != user.ID {
			t.Errorf("expected alert for %s, got %s", user.ID, dispatcher.alerts[0].UserID)
		}
	})

	t.Run("counts_only_expense_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		dispatcher := &recordingDispatcher{}
		budgets := NewBudgetService(db, dispatcher)
		svc := NewExpenseService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		testutil.SetMonthlyBudget(t, db, user.ID, 100)

		// Last month's spending is irrelevant to this month's budget.
		testutil.CreateTestExpenseWith(t, db, user.ID, models.CategoryFood, 500,
			time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC))

		_, err := svc.CreateExpense(user.ID, NewExpense{
			Title:    "Within budget",
			Amount:   50,
			Category: models.CategoryFood,
			Date:     time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
		})
		testutil.AssertNoError(t, err)

		if len(dispatcher.alerts) != 0 {
			t.Errorf("expected no alerts, got %v", dispatcher.alerts)
		}
	})

	t.Run("category_limit_alert", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		dispatcher := &recordingDispatcher{}
		budgets := NewBudgetService(db, dispatcher)
		svc := NewExpenseService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		testutil.SetCategoryBudget(t, db, user.ID, models.CategoryFood, 200)

		date := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
		testutil.CreateTestExpenseWith(t, db, user.ID, models.CategoryFood, 150, date)
		// Other categories never count against the Food limit.
		testutil.CreateTestExpenseWith(t, db, user.ID, models.CategoryTransport, 500, date)

		_, err := svc.CreateExpense(user.ID, NewExpense{
			Title:    "Over the Food limit",
			Amount:   60,
			Category: models.CategoryFood,
			Date:     date.AddDate(0, 0, 1),
		})
		testutil.AssertNoError(t, err)

		if len(dispatcher.alerts) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(dispatcher.alerts))
		}
		if dispatcher.alerts[0].Kind != notify.KindCategoryLimit {
			t.Errorf("expected category_limit, got %s", dispatcher.alerts[0].Kind)
		}
	})

	t.Run("disabled_alerts_skip_evaluation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		dispatcher := &recordingDispatcher{}
		budgets := NewBudgetService(db, dispatcher)
		svc := NewExpenseService(db, budgets)
		user := testutil.CreateTestUser(t, db)
		testutil.SetMonthlyBudget(t, db, user.ID, 10)
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).
			Update("budget_alert_enabled", false).Error; err != nil {
			t.Fatalf("failed to disable alerts: %v", err)
		}

		_, err := svc.CreateExpense(user.ID, NewExpense{
			Title:    "Way over",
			Amount:   1000,
			Category: models.CategoryFood,
		})
		testutil.AssertNoError(t, err)

		if len(dispatcher.alerts) != 0 {
			t.Errorf("expected no alerts when disabled, got %v", dispatcher.alerts)
		}
	})

	t.Run("missing_user_never_fails_the_write", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		dispatcher := &recordingDispatcher{}
		budgets := NewBudgetService(db, dispatcher)
		svc := NewExpenseService(db, budgets)

		_, err := svc.CreateExpense("0195a000-0000-7000-8000-000000000000", NewExpense{
			Title:    "Orphan expense",
			Amount:   10,
			Category: models.CategoryFood,
		})
		testutil.AssertNoError(t, err)

		if len(dispatcher.alerts) != 0 {
			t.Errorf("expected no alerts, got %v", dispatcher.alerts)
		}
	})
}
