package scheduler

import (
	"github.com/ikkim/bizdir-backend/internal/app/model"
	"github.com/ikkim/bizdir-backend/internal/app/repository"
	"github.com/ikkim/bizdir-backend/internal/app/service"
	"github.com/ikkim/bizdir-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// PendingDigestScheduler reminds administrators about listings awaiting review.
type PendingDigestScheduler struct {
	cron          *cron.Cron
	spec          string
	userRepo      repository.UserRepository
	adminService  service.AdminService
	notifications service.NotificationService
}

func NewPendingDigestScheduler(
	spec string,
	userRepo repository.UserRepository,
	adminService service.AdminService,
	notifications service.NotificationService,
) *PendingDigestScheduler {
	return &PendingDigestScheduler{
		cron:          cron.New(),
		spec:          spec,
		userRepo:      userRepo,
		adminService:  adminService,
		notifications: notifications,
	}
}

// Start registers the digest job and starts the cron loop
func (s *PendingDigestScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(); err != nil {
			logger.Error("Pending digest run failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for pending digest", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Pending digest scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce sends one digest to every admin when something is pending.
func (s *PendingDigestScheduler) RunOnce() error {
	pending, err := s.adminService.PendingCount()
	if err != nil {
		return err
	}
	if pending == 0 {
		logger.Debug("No pending listings, skipping digest", nil)
		return nil
	}

	admins, err := s.userRepo.FindByRole(model.RoleAdmin)
	if err != nil {
		return err
	}
	ids := make([]uint, len(admins))
	for i, a := range admins {
		ids[i] = a.ID
	}

	if err := s.notifications.NotifyPendingDigest(ids, pending); err != nil {
		return err
	}

	logger.Info("Pending digest sent", map[string]interface{}{
		"pending": pending,
		"admins":  len(ids),
	})
	return nil
}

// Stop waits for a running job to finish
func (s *PendingDigestScheduler) Stop() {
	logger.Info("Stopping pending digest scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Pending digest scheduler stopped", nil)
}
