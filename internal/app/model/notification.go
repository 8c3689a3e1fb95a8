package model

import (
	"time"

	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeListingApproved NotificationType = "listing_approved"
	NotificationTypePendingDigest   NotificationType = "pending_digest"
)

// Notification is a message addressed to one account.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID uint  `gorm:"not null;index" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Type    NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title   string           `gorm:"type:text;not null" json:"title"`
	Content string           `gorm:"type:text;not null" json:"content"`
	Link    string           `gorm:"type:text;not null" json:"link"`

	IsRead bool `gorm:"default:false;index" json:"is_read"`

	RelatedListingID *uint `gorm:"index" json:"related_listing_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
