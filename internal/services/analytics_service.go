package services

import (
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/models"
)

// analyticsService computes read-only spending aggregates. It never
// mutates the expense store.
type analyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db}
}

// summaryWindow resolves a period selector into a concrete time window.
// Anything other than "month" or "year" means all time.
func summaryWindow(period string, ref time.Time) (time.Time, time.Time) {
	if ref.IsZero() {
		ref = time.Now()
	}
	switch period {
	case PeriodMonth:
		return monthWindow(ref)
	case PeriodYear:
		return yearWindow(ref)
	default:
		return time.Unix(0, 0), time.Now()
	}
}

// GetSummary computes totals, the average, and the per-category breakdown
// for the user's expenses inside the selected window. An empty window is a
// valid result with all-zero figures.
func (s *analyticsService) GetSummary(userID, period string, ref time.Time) (*Summary, error) {
	start, end := summaryWindow(period, ref)

	type categoryRow struct {
		Category models.Category
		Total    float64
		Count    int64
	}

	var rows []categoryRow
	err := s.db.Model(&models.Expense{}).
		Select("category, SUM(amount) AS total, COUNT(*) AS count").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, start, end).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &Summary{
		CategoryBreakdown: make(map[models.Category]CategoryStat, len(rows)),
	}
	for _, row := range rows {
		summary.TotalSpent += row.Total
		summary.TotalCount += row.Count
	}
	if summary.TotalCount > 0 {
		summary.AveragePerTransaction = summary.TotalSpent / float64(summary.TotalCount)
	}
	for _, row := range rows {
		var pct float64
		if summary.TotalSpent > 0 {
			pct = round2(row.Total / summary.TotalSpent * 100)
		}
		summary.CategoryBreakdown[row.Category] = CategoryStat{
			Total:      row.Total,
			Count:      row.Count,
			Percentage: pct,
		}
	}

	return summary, nil
}

// GetDailyTotals groups the user's expenses between from and to by
// calendar day, summing amounts. Days with no expenses are omitted; the
// result is ordered by date ascending.
func (s *analyticsService) GetDailyTotals(userID string, from, to time.Time) ([]DailyTotal, error) {
	type expenseRow struct {
		Date   time.Time
		Amount float64
	}

	var rows []expenseRow
	err := s.db.Model(&models.Expense{}).
		Select("date, amount").
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from, to).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Bucketing by day happens here rather than in SQL so the date
	// formatting is identical across the postgres and sqlite drivers.
	byDay := make(map[string]float64, len(rows))
	for _, row := range rows {
		byDay[dayKey(row.Date)] += row.Amount
	}

	totals := make([]DailyTotal, 0, len(byDay))
	for day, total := range byDay {
		totals = append(totals, DailyTotal{Date: day, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })

	return totals, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
