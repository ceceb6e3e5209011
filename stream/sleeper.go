package stream

import (
	"context"
	"time"
)

// Sleeper blocks for a fixed time. Sleep returns early with the context's
// error when ctx is cancelled.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper reuses one timer for all sleeps, so pacing a frame does not
// allocate. It must only be used from one goroutine.
type TimerSleeper struct {
	timer *time.Timer
}

func NewTimerSleeper() *TimerSleeper {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return &TimerSleeper{timer: t}
}

func (s *TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	s.timer.Reset(d)
	select {
	case <-ctx.Done():
		s.timer.Stop()
		return ctx.Err()
	case <-s.timer.C:
		return nil
	}
}
