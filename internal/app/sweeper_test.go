package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Desk/internal/domain"
)

func TestSweeper_RunsAndStops(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect(t, "c1", "u1", "alice")
	created, _ := f.sessions.Create("c1", "stale", false)
	f.clock.Advance(time.Hour)

	got := make(chan []SweptSession, 1)
	s := NewSweeper(f.sessions, 5*time.Millisecond, 30*time.Minute)
	s.OnSwept = func(swept []SweptSession) { got <- swept }

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	select {
	case swept := <-got:
		req.Len(swept, 1)
		req.Equal(created.Session.ID, swept[0].Session.ID)
	case <-time.After(2 * time.Second):
		req.FailNow("sweeper never fired")
	}
	req.Equal(domain.GlobalSessionID, f.sessionOf(t, "c1"))

	s.Stop()
	s.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		req.FailNow("sweeper did not stop")
	}
}

func TestSweeper_StopsOnContext(t *testing.T) {
	f := newFixture()
	s := NewSweeper(f.sessions, time.Hour, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.FailNow(t, "sweeper ignored cancellation")
	}
}

func TestNewSweeper_FallsBackToDefaults(t *testing.T) {
	req := require.New(t)
	f := newFixture()

	s := NewSweeper(f.sessions, 0, -time.Second)
	req.Equal(DefaultSweepInterval, s.Interval)
	req.Equal(DefaultMaxIdle, s.MaxIdle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req.NotPanics(func() { s.Run(ctx) })
}
