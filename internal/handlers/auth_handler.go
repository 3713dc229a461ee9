package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/middleware"
	"spendwise/internal/models"
	"spendwise/internal/services"
)

// AuthHandler handles registration, login, and account management.
type AuthHandler struct {
	userService  services.UserServicer
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, auditService services.AuditServicer) *AuthHandler {
	return &AuthHandler{userService: userService, auditService: auditService}
}

// RegisterRequest represents the request payload for registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the request payload for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the signed token and the user it belongs to.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles new user registration
// @Summary     Register a new user
// @Description Create an account and return an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "Registration details"
// @Success     201 {object} AuthResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles user authentication
// @Summary     Log in
// @Description Verify credentials and return an access token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "Credentials"
// @Success     200 {object} AuthResponse "Authenticated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		// A missing account and a wrong password look the same to callers.
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	if !h.userService.VerifyPassword(user, req.Password) {
		respondWithError(c, apperrors.ErrInvalidCredentials)
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// GetProfile returns the authenticated user's profile
// @Summary     Get profile
// @Description Get the authenticated user's profile and preferences
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.User "Profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/me [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfileRequest represents the request payload for profile updates.
type UpdateProfileRequest struct {
	Name                        *string            `json:"name" binding:"omitempty,min=2,max=100"`
	Email                       *string            `json:"email" binding:"omitempty,email"`
	Currency                    *string            `json:"currency" binding:"omitempty,len=3"`
	Theme                       *string            `json:"theme" binding:"omitempty,theme"`
	DefaultCategory             *string            `json:"default_category" binding:"omitempty,expense_category"`
	PushNotificationsEnabled    *bool              `json:"push_notifications_enabled"`
	MonthlyNotificationsEnabled *bool              `json:"monthly_notifications_enabled"`
	BudgetAlertEnabled          *bool              `json:"budget_alert_enabled"`
	MonthlyBudget               *float64           `json:"monthly_budget" binding:"omitempty,gte=0"`
	CategoryBudgets             map[string]float64 `json:"category_budgets"`
}

// UpdateProfile handles partial profile updates
// @Summary     Update profile
// @Description Update profile fields, preferences, and budget limits. A non-null category_budgets map replaces all per-category limits.
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Fields to update"
// @Success     200 {object} models.User "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.ProfileUpdate{
		Name:                        req.Name,
		Email:                       req.Email,
		Currency:                    req.Currency,
		Theme:                       req.Theme,
		DefaultCategory:             req.DefaultCategory,
		PushNotificationsEnabled:    req.PushNotificationsEnabled,
		MonthlyNotificationsEnabled: req.MonthlyNotificationsEnabled,
		BudgetAlertEnabled:          req.BudgetAlertEnabled,
		MonthlyBudget:               req.MonthlyBudget,
	}

	if req.CategoryBudgets != nil {
		fields.CategoryBudgets = make(map[models.Category]float64, len(req.CategoryBudgets))
		for name, limit := range req.CategoryBudgets {
			fields.CategoryBudgets[models.Category(name)] = limit
		}
	}

	user, err := h.userService.UpdateProfile(userID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROFILE", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePasswordRequest represents the request payload for password changes.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword handles password changes
// @Summary     Change password
// @Description Verify the current password and replace it
// @Tags        users
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChangePasswordRequest true "Current and new password"
// @Success     200 {object} MessageResponse "Password changed"
// @Failure     400 {object} ErrorResponse "Invalid input or wrong current password"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /users/me/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.userService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CHANGE_PASSWORD", "user", userID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
