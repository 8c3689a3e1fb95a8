package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"gorm.io/gorm"
)

// Review is a rating/comment pair on a listing. Reviews are append-only.
type Review struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"` // client-generated
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Author    string    `gorm:"type:varchar(100);not null" json:"author"`
	Rating    int       `gorm:"not null" json:"rating"` // 1-5
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	Date      time.Time `gorm:"index" json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// BeforeCreate assigns an id when the client did not send one.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Date.IsZero() {
		r.Date = time.Now().UTC()
	}
	return nil
}

func (r *Review) ToDirectory() directory.Review {
	return directory.Review{
		ID:      r.ID,
		Author:  r.Author,
		Rating:  r.Rating,
		Comment: r.Comment,
		Date:    r.Date,
	}
}
