package services

import (
	"context"
	"time"

	"investorconnect/internal/adapters/persistence/repositories"
	"investorconnect/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronService runs scheduled maintenance jobs
type CronService struct {
	refreshTokenRepo repositories.RefreshTokenRepository
	schedule         string
	cron             *cron.Cron
	log              *zap.Logger
}

// NewCronService creates a new cron service. schedule is a standard
// five-field cron spec.
func NewCronService(refreshTokenRepo repositories.RefreshTokenRepository, schedule string, log *zap.Logger) *CronService {
	return &CronService{
		refreshTokenRepo: refreshTokenRepo,
		schedule:         schedule,
		cron:             cron.New(),
		log:              log,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runCleanup); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("cron service started", zap.String("token_cleanup", s.schedule))
	return nil
}

// Stop waits for running jobs and stops the scheduler
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron service stopped")
}

func (s *CronService) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.CleanupExpiredTokens(ctx); err != nil {
		s.log.Error("token cleanup failed", zap.Error(err))
	}
}

// CleanupExpiredTokens deletes expired refresh tokens
func (s *CronService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	metrics.ExpiredTokensDeleted.Add(float64(n))
	s.log.Info("expired refresh tokens deleted", zap.Int64("count", n))
	return n, nil
}
