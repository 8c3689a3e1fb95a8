package model

import (
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"gorm.io/gorm"
)

// Category is an administrator-curated canonical category.
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	NameKey   string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"-"` // lower-cased name
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// BeforeSave keeps NameKey in step with Name so uniqueness is case-insensitive.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.NameKey = directory.CategoryKey(c.Name)
	return nil
}

// CategoryNames returns the names in the given order.
func CategoryNames(categories []Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
