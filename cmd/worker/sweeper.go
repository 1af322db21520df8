package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type maintenance interface {
	ExpireDonations(ctx context.Context, now time.Time, ttl time.Duration) (int64, error)
	PurgeTokens(ctx context.Context, now time.Time) (int64, error)
	Now() time.Time
}

// sweeper periodically expires stale listings and drops revoked tokens that
// can no longer be presented.
type sweeper struct {
	svc      maintenance
	logger   zerolog.Logger
	ttl      time.Duration
	interval time.Duration
}

func (s *sweeper) Run(ctx context.Context) error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	s.logger.Info().Dur("interval", interval).Dur("ttl", s.ttl).Msg("worker: started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *sweeper) sweep(ctx context.Context) {
	now := s.svc.Now()
	if s.ttl > 0 {
		n, err := s.svc.ExpireDonations(ctx, now, s.ttl)
		if err != nil {
			s.logger.Error().Err(err).Msg("worker: expire donations failed")
		} else if n > 0 {
			s.logger.Info().Int64("expired", n).Msg("worker: expired donations")
		}
	}
	n, err := s.svc.PurgeTokens(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("worker: purge tokens failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("purged", n).Msg("worker: purged blacklisted tokens")
	}
}
