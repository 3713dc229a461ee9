package models

// User represents an account holder and their preferences.
type User struct {
	Base
	Name            string `gorm:"not null" json:"name"`
	Email           string `gorm:"uniqueIndex;not null" json:"email"`
	Password        string `gorm:"not null" json:"-"`
	Currency        string `gorm:"default:INR" json:"currency"`
	Theme           string `gorm:"default:light" json:"theme"`
	DefaultCategory string `gorm:"default:Other" json:"default_category"`

	PushNotificationsEnabled    bool `gorm:"default:true" json:"push_notifications_enabled"`
	MonthlyNotificationsEnabled bool `gorm:"default:true" json:"monthly_notifications_enabled"`
	BudgetAlertEnabled          bool `gorm:"default:true" json:"budget_alert_enabled"`

	// MonthlyBudget of 0 means no overall limit is configured.
	MonthlyBudget   float64          `gorm:"default:0" json:"monthly_budget"`
	CategoryBudgets []CategoryBudget `gorm:"foreignKey:UserID" json:"category_budgets,omitempty"`
}

// CategoryBudget is a per-category monthly spending limit. A limit of 0
// means no limit for that category.
type CategoryBudget struct {
	Base
	UserID   string   `gorm:"type:uuid;not null;uniqueIndex:idx_user_category" json:"user_id"`
	Category Category `gorm:"not null;uniqueIndex:idx_user_category" json:"category"`
	Limit    float64  `gorm:"column:limit_amount;not null" json:"limit"`
}

// BudgetMap flattens the user's category budgets into a category → limit map.
func (u *User) BudgetMap() map[Category]float64 {
	m := make(map[Category]float64, len(u.CategoryBudgets))
	for _, cb := range u.CategoryBudgets {
		m[cb.Category] = cb.Limit
	}
	return m
}
