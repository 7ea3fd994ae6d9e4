package services

import (
	"context"
	"log"
	"time"

	"gymgate/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
)

// CleanupService purges expired refresh tokens and abandoned MFA enrollments
// on a schedule
type CleanupService struct {
	cron             *cron.Cron
	refreshTokenRepo repositories.RefreshTokenRepository
	mfaRepo          repositories.MFARepository
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(
	refreshTokenRepo repositories.RefreshTokenRepository,
	mfaRepo repositories.MFARepository,
) *CleanupService {
	return &CleanupService{
		cron:             cron.New(),
		refreshTokenRepo: refreshTokenRepo,
		mfaRepo:          mfaRepo,
	}
}

// Start schedules the daily cleanup run (03:30)
func (s *CleanupService) Start() {
	_, err := s.cron.AddFunc("30 3 * * *", s.Run)
	if err != nil {
		log.Printf("❌ Failed to schedule cleanup job: %v", err)
		return
	}
	s.cron.Start()
	log.Println("✅ Cleanup job scheduled (daily 03:30)")
}

// Stop stops the scheduler
func (s *CleanupService) Stop() {
	s.cron.Stop()
}

// Run executes one cleanup pass
func (s *CleanupService) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️ Failed to purge expired refresh tokens: %v", err)
	}
	if err := s.mfaRepo.DeleteStalePending(ctx); err != nil {
		log.Printf("⚠️ Failed to purge stale MFA enrollments: %v", err)
	}

	log.Println("✅ Cleanup pass completed")
}
