package services

import (
	"context"
	"time"

	"auction-stream/internal/domain"
	"auction-stream/pkg/logger"

	"github.com/robfig/cron/v3"
)

// SessionCleaner purges expired session rows on a schedule. Redis cache
// entries expire on their own; only the MySQL rows need sweeping.
type SessionCleaner struct {
	cron     *cron.Cron
	sessions domain.SessionRepository
	log      logger.Logger
}

func NewSessionCleaner(sessions domain.SessionRepository, log logger.Logger) *SessionCleaner {
	return &SessionCleaner{
		cron:     cron.New(),
		sessions: sessions,
		log:      log,
	}
}

func (c *SessionCleaner) Start() error {
	c.log.Info("Starting session cleaner")

	_, err := c.cron.AddFunc("@hourly", c.purge)
	if err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

func (c *SessionCleaner) Stop() {
	c.log.Info("Stopping session cleaner")
	c.cron.Stop()
}

func (c *SessionCleaner) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := c.sessions.DeleteExpired(ctx, time.Now())
	if err != nil {
		c.log.Error("Failed to purge expired sessions", "error", err)
		return
	}
	if purged > 0 {
		c.log.Info("Purged expired sessions", "count", purged)
	}
}
