package generation

import (
	"context"
	"time"
)

// Clock abstracts time for the limiter.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// RealClock returns the wall clock. Sleep returns early with ctx.Err() on cancellation.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FixedWindow admits at most Limit calls per Window. The window starts when
// the limiter is created and restarts after it elapses or after a forced
// sleep. A non-positive Limit disables limiting.
type FixedWindow struct {
	limit  int
	window time.Duration
	clock  Clock

	count int
	start time.Time
}

func NewFixedWindow(limit int, window time.Duration, clock Clock) *FixedWindow {
	if clock == nil {
		clock = RealClock()
	}
	return &FixedWindow{limit: limit, window: window, clock: clock, start: clock.Now()}
}

// Wait blocks until another call fits in the current window and returns how
// long it slept.
func (w *FixedWindow) Wait(ctx context.Context) (time.Duration, error) {
	now := w.clock.Now()
	if now.Sub(w.start) >= w.window {
		w.count = 0
		w.start = now
	}
	if w.limit <= 0 || w.count < w.limit {
		return 0, nil
	}
	pause := w.window - now.Sub(w.start)
	if pause > 0 {
		if err := w.clock.Sleep(ctx, pause); err != nil {
			return 0, err
		}
	}
	w.count = 0
	w.start = w.clock.Now()
	return pause, nil
}

// Record counts one issued call against the current window.
func (w *FixedWindow) Record() {
	w.count++
}

// Count is the number of calls recorded in the current window.
func (w *FixedWindow) Count() int { return w.count }
