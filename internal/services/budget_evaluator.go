package services

import "spendwise/internal/models"

// Alert kinds produced by budget evaluation.
const (
	AlertOverallBudget = "overall_budget_exceeded"
	AlertCategoryLimit = "category_limit_reached"
)

// BudgetAlert describes one threshold crossing caused by a new expense.
type BudgetAlert struct {
	Kind      string
	Category  models.Category
	Projected float64
	Limit     float64
}

// EvaluateBudgets decides which alerts a new expense triggers, given the
// month's running totals before that expense is counted.
//
// A limit of 0 (or an absent category entry) means "no limit configured",
// not a zero-spend cap; it never triggers an alert. The overall and
// category rules are independent and may both fire for one expense.
func EvaluateBudgets(
	monthlyLimit float64,
	categoryLimits map[models.Category]float64,
	monthTotal, categoryTotal, amount float64,
	category models.Category,
) []BudgetAlert {
	var alerts []BudgetAlert

	if monthlyLimit > 0 && monthTotal+amount > monthlyLimit {
		alerts = append(alerts, BudgetAlert{
			Kind:      AlertOverallBudget,
			Projected: monthTotal + amount,
			Limit:     monthlyLimit,
		})
	}

	if limit := categoryLimits[category]; limit > 0 && categoryTotal+amount > limit {
		alerts = append(alerts, BudgetAlert{
			Kind:      AlertCategoryLimit,
			Category:  category,
			Projected: categoryTotal + amount,
			Limit:     limit,
		})
	}

	return alerts
}
