package generation

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestFixedWindowSleepsAfterLimit(t *testing.T) {
	clock := newFakeClock()
	w := NewFixedWindow(10, time.Minute, clock)
	ctx := context.Background()

	clock.advance(5 * time.Second)
	for i := 1; i <= 12; i++ {
		slept, err := w.Wait(ctx)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		switch {
		case i <= 10 && slept != 0:
			t.Fatalf("call %d slept %s", i, slept)
		case i == 11 && slept < 55*time.Second:
			t.Fatalf("call 11 slept %s, want at least 55s", slept)
		case i == 12 && slept != 0:
			t.Fatalf("call 12 slept %s", slept)
		}
		w.Record()
	}
	if len(clock.sleeps) != 1 {
		t.Fatalf("expected exactly one sleep, got %v", clock.sleeps)
	}
	if w.Count() != 2 {
		t.Fatalf("window count = %d, want 2", w.Count())
	}
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	w := NewFixedWindow(2, time.Minute, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := w.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
		w.Record()
	}
	clock.advance(61 * time.Second)
	slept, err := w.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if slept != 0 || len(clock.sleeps) != 0 {
		t.Fatalf("expected no sleep after the window elapsed, slept %s", slept)
	}
	if w.Count() != 0 {
		t.Fatalf("count = %d after reset", w.Count())
	}
}

func TestFixedWindowDisabled(t *testing.T) {
	clock := newFakeClock()
	w := NewFixedWindow(0, time.Minute, clock)
	for i := 0; i < 100; i++ {
		if slept, _ := w.Wait(context.Background()); slept != 0 {
			t.Fatal("disabled limiter slept")
		}
		w.Record()
	}
}

func TestFixedWindowCancelledSleep(t *testing.T) {
	clock := newFakeClock()
	w := NewFixedWindow(1, time.Minute, clock)
	w.Record()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Wait(ctx); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRealClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := RealClock().Sleep(ctx, time.Hour); err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > time.Second {
		t.Fatal("sleep ignored cancellation")
	}
}
