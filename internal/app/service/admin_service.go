package service

import (
	"context"
	"errors"

	"github.com/ikkim/bizdir-backend/internal/app/directory"
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidStatus      = errors.New("invalid listing status")
	ErrInvalidRole        = errors.New("invalid role")
	ErrCannotModifySelf   = errors.New("administrators cannot change or delete their own account here")
	ErrAdminOnlyOperation = errors.New("administrator access required")
)

type AdminService interface {
	ListByStatus(actor directory.Actor, status directory.Status) ([]model.Listing, error)
	Approve(ctx context.Context, actor directory.Actor, listingID uint) (*model.Listing, error)
	Reject(ctx context.Context, actor directory.Actor, listingID uint) (*model.Listing, error)
	PendingCount() (int64, error)

	ListUsers(actor directory.Actor) ([]model.User, error)
	SetUserRole(actor directory.Actor, userID uint, role model.UserRole) (*model.User, error)
	DeleteUser(actor directory.Actor, userID uint) error

	// ExportListings renders listings as XLSX. An empty status exports all.
	ExportListings(actor directory.Actor, status directory.Status) ([]byte, error)
}

type adminService struct {
	listingRepo   repository.ListingRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	cache         *ListingCache
}

func NewAdminService(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	notifications NotificationService,
	cache *ListingCache,
) AdminService {
	return &adminService{
		listingRepo:   listingRepo,
		userRepo:      userRepo,
		notifications: notifications,
		cache:         cache,
	}
}

func requireAdmin(actor directory.Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminOnlyOperation
	}
	return nil
}

func (s *adminService) ListByStatus(actor directory.Actor, status directory.Status) ([]model.Listing, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.listingRepo.FindByStatus(status)
}

func (s *adminService) PendingCount() (int64, error) {
	return s.listingRepo.CountByStatus(directory.StatusPending)
}

func (s *adminService) Approve(ctx context.Context, actor directory.Actor, listingID uint) (*model.Listing, error) {
	return s.transition(ctx, actor, listingID, directory.StatusApproved)
}

func (s *adminService) Reject(ctx context.Context, actor directory.Actor, listingID uint) (*model.Listing, error) {
	return s.transition(ctx, actor, listingID, directory.StatusRejected)
}

// transition applies an administrative status change. A change into approved
// produces exactly one owner notification; repeating the same transition is
// rejected with directory.ErrAlreadyInStatus and notifies nobody.
func (s *adminService) transition(ctx context.Context, actor directory.Actor, listingID uint, to directory.Status) (*model.Listing, error) {
	listing, err := s.listingRepo.FindByID(listingID)
	if err != nil {
		return nil, mapListingErr(err)
	}

	from := listing.Status
	if err := directory.Transition(from, to, actor); err != nil {
		logger.Warn("Listing status change refused", map[string]interface{}{
			"listing_id": listingID,
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		return nil, err
	}

	if err := s.listingRepo.UpdateStatus(listingID, to); err != nil {
		return nil, mapListingErr(err)
	}
	listing.Status = to
	s.cache.Invalidate(ctx)

	logger.Info("Listing status changed", map[string]interface{}{
		"listing_id": listingID,
		"admin_id":   actor.UserID,
		"from":       from,
		"to":         to,
	})

	if to == directory.StatusApproved && s.notifications != nil {
		if _, err := s.notifications.NotifyListingApproved(listing); err != nil {
			logger.Error("Listing approved but owner notification failed", err, map[string]interface{}{
				"listing_id": listingID,
			})
		}
	}
	return listing, nil
}

func (s *adminService) ListUsers(actor directory.Actor) ([]model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.FindAll()
}

func (s *adminService) SetUserRole(actor directory.Actor, userID uint, role model.UserRole) (*model.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if userID == actor.UserID {
		return nil, ErrCannotModifySelf
	}

	if err := s.userRepo.UpdateRole(userID, role); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	logger.Info("User role changed", map[string]interface{}{
		"user_id":  userID,
		"role":     role,
		"admin_id": actor.UserID,
	})

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *adminService) DeleteUser(actor directory.Actor, userID uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.UserID {
		return ErrCannotModifySelf
	}

	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	logger.Info("User deleted", map[string]interface{}{
		"user_id":  userID,
		"admin_id": actor.UserID,
	})
	return nil
}

func (s *adminService) ExportListings(actor directory.Actor, status directory.Status) ([]byte, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var listings []model.Listing
	if status == "" {
		for _, st := range []directory.Status{directory.StatusPending, directory.StatusApproved, directory.StatusRejected} {
			batch, err := s.listingRepo.FindByStatus(st)
			if err != nil {
				return nil, err
			}
			listings = append(listings, batch...)
		}
	} else {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		var err error
		if listings, err = s.listingRepo.FindByStatus(status); err != nil {
			return nil, err
		}
	}

	data, err := WriteListingsXLSX(listings)
	if err != nil {
		logger.Error("Failed to render listings export", err, nil)
		return nil, err
	}

	logger.Info("Listings exported", map[string]interface{}{
		"admin_id": actor.UserID,
		"status":   status,
		"count":    len(listings),
	})
	return data, nil
}
