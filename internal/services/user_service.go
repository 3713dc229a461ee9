package services

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// userService handles user registration, credentials, and preferences.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user.
func (s *userService) CreateUser(name, email, password string) (*models.User, error) {
	if name == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, email and password are required")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Name:                        name,
		Email:                       strings.ToLower(email),
		Password:                    string(hashedPassword),
		Currency:                    "INR",
		Theme:                       "light",
		DefaultCategory:             string(models.CategoryOther),
		PushNotificationsEnabled:    true,
		MonthlyNotificationsEnabled: true,
		BudgetAlertEnabled:          true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("CategoryBudgets").Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID, including category budgets.
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("CategoryBudgets").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks the provided password against the stored hash.
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// UpdateProfile applies a partial update to the user's profile and
// preferences. A non-nil CategoryBudgets map replaces all per-category
// limits in one transaction.
func (s *userService) UpdateProfile(userID string, fields ProfileUpdate) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if fields.DefaultCategory != nil && !models.Category(*fields.DefaultCategory).Valid() {
		return nil, apperrors.ErrInvalidCategory
	}
	if fields.MonthlyBudget != nil && *fields.MonthlyBudget < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "monthly budget cannot be negative")
	}
	for category, limit := range fields.CategoryBudgets {
		if !category.Valid() {
			return nil, apperrors.ErrInvalidCategory
		}
		if limit < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category budget cannot be negative")
		}
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		updates["name"] = *fields.Name
	}
	if fields.Email != nil {
		updates["email"] = strings.ToLower(*fields.Email)
	}
	if fields.Currency != nil {
		updates["currency"] = *fields.Currency
	}
	if fields.Theme != nil {
		updates["theme"] = *fields.Theme
	}
	if fields.DefaultCategory != nil {
		updates["default_category"] = *fields.DefaultCategory
	}
	if fields.PushNotificationsEnabled != nil {
		updates["push_notifications_enabled"] = *fields.PushNotificationsEnabled
	}
	if fields.MonthlyNotificationsEnabled != nil {
		updates["monthly_notifications_enabled"] = *fields.MonthlyNotificationsEnabled
	}
	if fields.BudgetAlertEnabled != nil {
		updates["budget_alert_enabled"] = *fields.BudgetAlertEnabled
	}
	if fields.MonthlyBudget != nil {
		updates["monthly_budget"] = *fields.MonthlyBudget
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(user).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if fields.CategoryBudgets != nil {
			if err := tx.Where("user_id = ?", userID).Delete(&models.CategoryBudget{}).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			for category, limit := range fields.CategoryBudgets {
				cb := &models.CategoryBudget{UserID: userID, Category: category, Limit: limit}
				if err := tx.Create(cb).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(userID)
}

// ChangePassword verifies the current password and stores a hash of the
// new one.
func (s *userService) ChangePassword(userID, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !s.VerifyPassword(user, currentPassword) {
		return apperrors.ErrInvalidPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(user).Update("password", string(hashedPassword)).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
