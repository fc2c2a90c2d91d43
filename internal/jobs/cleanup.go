package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CleanupService évince périodiquement les jobs terminés plus vieux que maxAge
type CleanupService struct {
	jobService JobService
	interval   time.Duration
	maxAge     time.Duration
	logger     zerolog.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewCleanupService(jobService JobService, interval, maxAge time.Duration, logger zerolog.Logger) *CleanupService {
	return &CleanupService{
		jobService: jobService,
		interval:   interval,
		maxAge:     maxAge,
		logger:     logger.With().Str("component", "cleanup").Logger(),
		stopCh:     make(chan struct{}),
	}
}

// Start bloque jusqu'à l'annulation du contexte ou l'appel à Stop
func (c *CleanupService) Start(ctx context.Context) {
	if c.maxAge <= 0 || c.interval <= 0 {
		c.logger.Info().Msg("Cleanup service disabled")
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info().
		Dur("interval", c.interval).
		Dur("max_age", c.maxAge).
		Msg("Cleanup service started")

	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Cleanup service stopped due to context cancellation")
			return
		case <-c.stopCh:
			c.logger.Info().Msg("Cleanup service stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce lance une passe d'éviction et retourne le nombre de jobs supprimés.
// Sans rétention configurée, les jobs terminés restent consultables.
func (c *CleanupService) RunOnce(ctx context.Context) int {
	if c.maxAge <= 0 {
		return 0
	}
	deleted, err := c.jobService.DeleteTerminalOlderThan(ctx, time.Now().Add(-c.maxAge))
	if err != nil {
		c.logger.Error().Err(err).Msg("Cleanup error")
		return 0
	}
	if deleted > 0 {
		c.logger.Info().Int("deleted", deleted).Int("remaining", c.jobService.Len()).Msg("Cleanup completed")
	}
	return deleted
}

func (c *CleanupService) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}
