package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper runs SessionStore.SweepInactive on a fixed interval until stopped.
type Sweeper struct {
	Sessions *SessionStore
	Interval time.Duration
	MaxIdle  time.Duration
	// OnSwept, when set, is called with each non-empty sweep outcome.
	OnSwept func([]SweptSession)

	done     chan struct{}
	stopOnce sync.Once
}

const (
	DefaultSweepInterval = 5 * time.Minute
	DefaultMaxIdle       = 30 * time.Minute
)

// NewSweeper falls back to the defaults for non-positive durations.
func NewSweeper(sessions *SessionStore, interval, maxIdle time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	return &Sweeper{
		Sessions: sessions,
		Interval: interval,
		MaxIdle:  maxIdle,
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled or Stop is called.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "app.sweeper").Dur("interval", s.Interval).Dur("max_idle", s.MaxIdle).Msg("sweeper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.sweeper").Msg("sweeper ctx done")
			return
		case <-s.done:
			log.Info().Str("module", "app.sweeper").Msg("sweeper stopped")
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	swept := s.Sessions.SweepInactive(s.MaxIdle)
	if len(swept) == 0 {
		return
	}
	log.Info().Str("module", "app.sweeper").Int("sessions", len(swept)).Msg("swept inactive sessions")
	if s.OnSwept != nil {
		s.OnSwept(swept)
	}
}

func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}
