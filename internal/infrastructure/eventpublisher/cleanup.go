package eventpublisher

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// Cleanup periodically deletes published outbox events older than the retention window.
type Cleanup struct {
	outboxRepo usecase.OutboxRepository
	retention  time.Duration
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	cron       *cron.Cron
	now        func() time.Time
}

// NewCleanup creates a new Cleanup job.
func NewCleanup(outboxRepo usecase.OutboxRepository, retention time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Cleanup {
	logger = logger.With().Str("component", "outbox_cleanup").Logger()
	cronLogger := cron.PrintfLogger(&logger)

	return &Cleanup{
		outboxRepo: outboxRepo,
		retention:  retention,
		metrics:    m,
		logger:     logger,
		cron:       cron.New(cron.WithChain(cron.Recover(cronLogger))),
		now:        time.Now,
	}
}

// Start schedules Purge with a standard cron spec and starts the scheduler.
func (c *Cleanup) Start(spec string) error {
	if _, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := c.Purge(ctx); err != nil {
			c.logger.Error().Err(err).Msg("outbox cleanup failed")
		}
	}); err != nil {
		return err
	}

	c.logger.Info().Str("schedule", spec).Dur("retention", c.retention).Msg("scheduled outbox cleanup")
	c.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs finish.
func (c *Cleanup) Stop() context.Context {
	return c.cron.Stop()
}

// Purge deletes published events older than the retention window.
func (c *Cleanup) Purge(ctx context.Context) (int64, error) {
	deleted, err := c.outboxRepo.DeletePublished(ctx, c.now().Add(-c.retention))
	if err != nil {
		return 0, err
	}

	if c.metrics != nil {
		c.metrics.OutboxPurged.Add(float64(deleted))
	}
	if deleted > 0 {
		c.logger.Info().Int64("deleted", deleted).Msg("purged published outbox events")
	}
	return deleted, nil
}
