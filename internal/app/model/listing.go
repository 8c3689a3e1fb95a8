package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// LinkList stores typed contact links as a JSON column.
type LinkList []directory.Link

// Value implements driver.Valuer
func (l LinkList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *LinkList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("failed to scan LinkList")
	}
	return json.Unmarshal(data, l)
}

type ListingContact struct {
	Phone string   `gorm:"type:varchar(30);not null" json:"phone"`
	Email string   `gorm:"type:varchar(255);not null" json:"email"`
	Links LinkList `gorm:"type:text" json:"links"`
}

type ListingAddress struct {
	Street    string   `gorm:"not null" json:"street"`
	City      string   `gorm:"index;not null" json:"city"`
	State     string   `gorm:"not null" json:"state"`
	Zip       string   `gorm:"type:varchar(20);not null" json:"zip"`
	Latitude  *float64 `gorm:"type:decimal(10,8)" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"type:decimal(11,8)" json:"longitude,omitempty"`
}

// Listing is a business directory entry.
type Listing struct {
	ID      uint  `gorm:"primarykey" json:"id"`
	OwnerID uint  `gorm:"index;not null" json:"owner_id"` // set once at creation
	Owner   *User `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"owner,omitempty"`

	Name             string         `gorm:"not null" json:"name"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Category         string         `gorm:"type:varchar(100);index;not null" json:"category"` // resolved, never "Other"
	SearchCategories pq.StringArray `gorm:"type:text" json:"search_categories"`

	Contact ListingContact `gorm:"embedded;embeddedPrefix:contact_" json:"contact"`
	Address ListingAddress `gorm:"embedded;embeddedPrefix:address_" json:"address"`

	Images  pq.StringArray `gorm:"type:text" json:"images"`
	Reviews []Review       `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"reviews"`

	Status           directory.Status `gorm:"type:varchar(20);default:'pending';index;not null" json:"status"`
	ReferenceBy      string           `gorm:"not null" json:"reference_by"`
	CasteAndCategory string           `gorm:"not null" json:"caste_and_category"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Listing) TableName() string {
	return "listings"
}

// ToDirectory converts the row to the snapshot type used by the listing rules.
func (l *Listing) ToDirectory() directory.Listing {
	reviews := make([]directory.Review, len(l.Reviews))
	for i := range l.Reviews {
		reviews[i] = l.Reviews[i].ToDirectory()
	}
	return directory.Listing{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		Name:             l.Name,
		Description:      l.Description,
		Category:         l.Category,
		SearchCategories: append([]string(nil), l.SearchCategories...),
		Contact: directory.Contact{
			Phone: l.Contact.Phone,
			Email: l.Contact.Email,
			Links: append([]directory.Link(nil), l.Contact.Links...),
		},
		Address: directory.Address{
			Street:    l.Address.Street,
			City:      l.Address.City,
			State:     l.Address.State,
			Zip:       l.Address.Zip,
			Latitude:  l.Address.Latitude,
			Longitude: l.Address.Longitude,
		},
		Images:        append([]string(nil), l.Images...),
		Reviews:       reviews,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
		AverageRating: directory.AverageRating(reviews),
	}
}

// ToDirectoryListings converts a batch of rows, keeping order.
func ToDirectoryListings(listings []Listing) []directory.Listing {
	out := make([]directory.Listing, len(listings))
	for i := range listings {
		out[i] = listings[i].ToDirectory()
	}
	return out
}
