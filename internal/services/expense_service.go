package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// Expense field bounds.
const (
	titleMinLen       = 3
	titleMaxLen       = 60
	descriptionMaxLen = 500
	amountMin         = 0.01
	amountMax         = 9999999.99
)

// sortColumns whitelists the fields a listing may be ordered by.
var sortColumns = map[string]string{
	"date":       "date",
	"amount":     "amount",
	"title":      "title",
	"category":   "category",
	"created_at": "created_at",
}

// expenseService handles expense CRUD and querying.
type expenseService struct {
	db      *gorm.DB
	budgets BudgetServicer
}

// NewExpenseService creates a new ExpenseServicer. budgets may be nil to
// disable budget evaluation.
func NewExpenseService(db *gorm.DB, budgets BudgetServicer) ExpenseServicer {
	return &expenseService{db: db, budgets: budgets}
}

func validateExpenseFields(title string, amount float64, category models.Category, description string) error {
	if n := utf8.RuneCountInString(title); n < titleMinLen || n > titleMaxLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("title must be between %d and %d characters", titleMinLen, titleMaxLen))
	}
	if amount < amountMin || amount > amountMax {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("amount must be between %.2f and %.2f", amountMin, amountMax))
	}
	if !category.Valid() {
		return apperrors.ErrInvalidCategory
	}
	if utf8.RuneCountInString(description) > descriptionMaxLen {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("description must be at most %d characters", descriptionMaxLen))
	}
	return nil
}

// CreateExpense records a new expense and triggers budget evaluation as a
// side effect. Budget evaluation is best-effort and cannot fail the write.
func (s *expenseService) CreateExpense(userID string, in NewExpense) (*models.Expense, error) {
	if err := validateExpenseFields(in.Title, in.Amount, in.Category, in.Description); err != nil {
		return nil, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}

	expense := &models.Expense{
		UserID:      userID,
		Title:       in.Title,
		Amount:      in.Amount,
		Category:    in.Category,
		Date:        date,
		TimeOfDay:   in.TimeOfDay,
		Description: in.Description,
		Tags:        in.Tags,
	}

	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if s.budgets != nil {
		s.budgets.ExpenseRecorded(expense)
	}

	return expense, nil
}

// ListExpenses returns the user's expenses matching filter, ordered by
// sort and paginated. The total count covers every match, not just the
// returned page.
func (s *expenseService) ListExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter, sort SortSpec) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	order, err := orderClause(sort)
	if err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	base = applyExpenseFilters(base, filter)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Scopes(pagination.Paginate(page)).
		Order(order).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.Limit, total)
	return &result, nil
}

func orderClause(sort SortSpec) (string, error) {
	field := sort.Field
	if field == "" {
		field = "date"
	}
	column, ok := sortColumns[field]
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidSort, "cannot sort by "+field)
	}
	dir := "ASC"
	if sort.Descending {
		dir = "DESC"
	}
	return column + " " + dir, nil
}

func applyExpenseFilters(q *gorm.DB, f ExpenseFilter) *gorm.DB {
	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?)",
			pattern, pattern, pattern)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.From != nil {
		q = q.Where("date >= ?", *f.From)
	}
	if f.To != nil {
		// The upper bound covers the whole calendar day it falls on.
		q = q.Where("date <= ?", endOfDay(*f.To))
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetExpenseByID retrieves an expense. A record owned by a different user
// yields FORBIDDEN rather than NOT_FOUND; this reveals existence, but
// deployed clients rely on the distinction, so it is kept.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ?", expenseID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if expense.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	return &expense, nil
}

// UpdateExpense applies a partial field update to an owned expense.
func (s *expenseService) UpdateExpense(userID, expenseID string, fields ExpenseUpdate) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	if fields.Title != nil {
		expense.Title = *fields.Title
	}
	if fields.Amount != nil {
		expense.Amount = *fields.Amount
	}
	if fields.Category != nil {
		expense.Category = *fields.Category
	}
	if fields.Date != nil {
		expense.Date = *fields.Date
	}
	if fields.TimeOfDay != nil {
		expense.TimeOfDay = *fields.TimeOfDay
	}
	if fields.Description != nil {
		expense.Description = *fields.Description
	}
	if fields.Tags != nil {
		expense.Tags = *fields.Tags
	}
	if fields.Archived != nil {
		expense.Archived = *fields.Archived
	}

	if err := validateExpenseFields(expense.Title, expense.Amount, expense.Category, expense.Description); err != nil {
		return nil, err
	}

	if err := s.db.Save(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// DeleteExpense permanently removes an owned expense.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
