// Package validator registers custom validation functions with Gin's
// binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendwise/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("expense_category", validateExpenseCategory)
		_ = v.RegisterValidation("theme", validateTheme)
		_ = v.RegisterValidation("sort_order", validateSortOrder)
	}
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).Valid()
}

func validateTheme(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "light", "dark", "auto":
		return true
	}
	return false
}

func validateSortOrder(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "asc", "desc":
		return true
	}
	return false
}
