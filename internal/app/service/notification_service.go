package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrNotificationNotFound  = errors.New("notification not found")
	ErrNotificationForbidden = errors.New("notification belongs to another user")
)

// RealtimePusher delivers a payload to a user's open sessions.
// *websocket.Hub implements it.
type RealtimePusher interface {
	SendNotificationToUser(userID uint, message interface{}) error
}

type NotificationService interface {
	GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) (*model.Notification, error)
	MarkAllAsRead(userID uint) error
	DeleteNotification(notificationID, userID uint) error

	NotifyListingApproved(listing *model.Listing) (*model.Notification, error)
	NotifyPendingDigest(adminIDs []uint, pending int64) error
}

type notificationService struct {
	repo   repository.NotificationRepository
	pusher RealtimePusher
}

// NewNotificationService builds the service. pusher may be nil, in which
// case notifications are only stored.
func NewNotificationService(repo repository.NotificationRepository, pusher RealtimePusher) NotificationService {
	return &notificationService{
		repo:   repo,
		pusher: pusher,
	}
}

func (s *notificationService) GetNotifications(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	notifications, total, err := s.repo.List(userID, isRead, pageSize, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	unreadCount, err := s.repo.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unreadCount, nil
}

func (s *notificationService) GetUnreadCount(userID uint) (int64, error) {
	return s.repo.UnreadCount(userID)
}

func (s *notificationService) findOwned(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.repo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	if notification.UserID != userID {
		return nil, ErrNotificationForbidden
	}
	return notification, nil
}

func (s *notificationService) MarkAsRead(notificationID, userID uint) (*model.Notification, error) {
	notification, err := s.findOwned(notificationID, userID)
	if err != nil {
		return nil, err
	}
	if notification.IsRead {
		return notification, nil
	}

	if err := s.repo.MarkAsRead(notificationID); err != nil {
		return nil, err
	}
	notification.IsRead = true
	return notification, nil
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID uint) error {
	if _, err := s.findOwned(notificationID, userID); err != nil {
		return err
	}
	return s.repo.Delete(notificationID)
}

// NotifyListingApproved stores the owner's approval notification and pushes
// it to any open session.
func (s *notificationService) NotifyListingApproved(listing *model.Listing) (*model.Notification, error) {
	listingID := listing.ID
	notification := &model.Notification{
		UserID:           listing.OwnerID,
		Type:             model.NotificationTypeListingApproved,
		Title:            "Your listing has been approved",
		Content:          fmt.Sprintf("%s is now visible in the directory.", listing.Name),
		Link:             fmt.Sprintf("/listings/%d", listing.ID),
		RelatedListingID: &listingID,
	}

	if err := s.repo.Create(notification); err != nil {
		logger.Error("Failed to create approval notification", err, map[string]interface{}{
			"listing_id": listing.ID,
			"owner_id":   listing.OwnerID,
		})
		return nil, err
	}

	s.push(notification)
	return notification, nil
}

// NotifyPendingDigest tells every administrator how many listings await review.
// Individual failures are logged and skipped.
func (s *notificationService) NotifyPendingDigest(adminIDs []uint, pending int64) error {
	var firstErr error
	for _, adminID := range adminIDs {
		notification := &model.Notification{
			UserID:  adminID,
			Type:    model.NotificationTypePendingDigest,
			Title:   fmt.Sprintf("%d listings are waiting for review", pending),
			Content: "Review pending submissions to publish them in the directory.",
			Link:    "/admin/listings?status=pending",
		}
		if err := s.repo.Create(notification); err != nil {
			logger.Error("Failed to create digest notification", err, map[string]interface{}{
				"admin_id": adminID,
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.push(notification)
	}
	return firstErr
}

func (s *notificationService) push(notification *model.Notification) {
	if s.pusher == nil {
		return
	}

	unreadCount, _ := s.repo.UnreadCount(notification.UserID)
	message := map[string]interface{}{
		"type":         "new_notification",
		"unread_count": unreadCount,
		"notification": notification,
	}
	if err := s.pusher.SendNotificationToUser(notification.UserID, message); err != nil {
		logger.Warn("Failed to push notification", map[string]interface{}{
			"user_id":         notification.UserID,
			"notification_id": notification.ID,
			"error":           err.Error(),
		})
	}
}
