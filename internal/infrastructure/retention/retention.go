// Package retention removes conversations past the configured age on a
// nightly schedule.
package retention

import (
	"context"
	"time"

	"github.com/mileusna/crontab"
	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/conversation"
)

// Sweeper runs the retention job.
type Sweeper struct {
	conversations conversation.Repository
	retention     time.Duration
	logger        zerolog.Logger
}

func NewSweeper(conversations conversation.Repository, retentionDays int, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		conversations: conversations,
		retention:     time.Duration(retentionDays) * 24 * time.Hour,
		logger:        logger.With().Str("component", "retention").Logger(),
	}
}

// Run schedules the nightly sweep and blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	tab := crontab.New()
	if err := tab.AddJob("0 3 * * *", func() { s.sweep(ctx) }); err != nil {
		return err
	}
	s.logger.Info().Dur("retention", s.retention).Msg("retention sweeper scheduled")

	<-ctx.Done()
	tab.Shutdown()
	return nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.retention)
	deleted, err := s.conversations.DeleteOlderThan(sweepCtx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("retention sweep failed")
		return
	}
	s.logger.Info().
		Int64("conversations_deleted", deleted).
		Time("cutoff", cutoff).
		Msg("retention sweep finished")
}
