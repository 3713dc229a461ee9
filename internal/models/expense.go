package models

import "time"

// Category is one of the fixed expense categories.
type Category string

// The full category set. Clients send these names verbatim.
const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryShopping      Category = "Shopping"
	CategoryRent          Category = "Rent"
	CategoryOther         Category = "Other"
)

// AllCategories lists every valid category in display order.
var AllCategories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryShopping,
	CategoryRent,
	CategoryOther,
}

// Valid reports whether c is a member of the fixed category set.
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single spending record. It belongs to exactly one user;
// the owner never changes after creation.
type Expense struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string    `gorm:"not null" json:"title"`
	Amount      float64   `gorm:"not null" json:"amount"`
	Category    Category  `gorm:"not null" json:"category"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	TimeOfDay   string    `json:"time,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `gorm:"serializer:json" json:"tags,omitempty"`
	Archived    bool      `gorm:"default:false" json:"archived"`
}
