package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time, 1), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() { f.once.Do(func() { close(f.stopped) }) }

func countingController(t *testing.T, ticker *fakeTicker) (*RefreshController, *atomic.Int32) {
	t.Helper()
	var cycles atomic.Int32
	c := NewRefreshController(RefreshOptions{
		Cycle: func(context.Context, Trigger) error {
			cycles.Add(1)
			return nil
		},
		Interval:  60,
		NewTicker: func(time.Duration) Ticker { return ticker },
	})
	return c, &cycles
}

func TestRefreshFiresOnceAfterSixtyTicks(t *testing.T) {
	t.Parallel()
	c, cycles := countingController(t, newFakeTicker())
	c.Start(context.Background())
	defer c.Stop()

	if got := c.State().Countdown; got != 60 {
		t.Fatalf("initial countdown: got %d want 60", got)
	}
	for i := 0; i < 59; i++ {
		if c.Tick() {
			t.Fatalf("tick %d fired a cycle early", i+1)
		}
	}
	if !c.Tick() {
		t.Fatal("60th tick should fire a cycle")
	}
	c.Wait()
	if cycles.Load() != 1 {
		t.Fatalf("cycles: got %d want 1", cycles.Load())
	}
	if got := c.State().Countdown; got != 60 {
		t.Fatalf("countdown after cycle: got %d want 60", got)
	}
}

func TestManualRefreshKeepsCountdown(t *testing.T) {
	t.Parallel()
	c, cycles := countingController(t, newFakeTicker())
	c.Start(context.Background())
	defer c.Stop()

	for i := 0; i < 10; i++ {
		c.Tick()
	}
	if err := c.Refresh(context.Background(), TriggerManual); err != nil {
		t.Fatalf("manual refresh: %v", err)
	}
	if cycles.Load() != 1 {
		t.Fatalf("manual refresh should run one cycle, got %d", cycles.Load())
	}
	if got := c.State().Countdown; got != 50 {
		t.Fatalf("manual refresh changed countdown: got %d want 50", got)
	}
}

func TestStopCancelsTimerAndDropsTicks(t *testing.T) {
	t.Parallel()
	ticker := newFakeTicker()
	c, cycles := countingController(t, ticker)
	c.Start(context.Background())
	c.Stop()

	select {
	case <-ticker.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("ticker was not stopped")
	}
	for i := 0; i < 120; i++ {
		if c.Tick() {
			t.Fatal("tick after stop fired a cycle")
		}
	}
	c.Wait()
	if cycles.Load() != 0 {
		t.Fatalf("cycles after stop: %d", cycles.Load())
	}
	if st := c.State(); st.Enabled || st.Countdown != 0 {
		t.Fatalf("stopped state: %+v", st)
	}
}

func TestRestartResetsCountdown(t *testing.T) {
	t.Parallel()
	c, _ := countingController(t, newFakeTicker())
	c.Start(context.Background())
	for i := 0; i < 30; i++ {
		c.Tick()
	}
	c.Stop()
	c.SetEnabled(context.Background(), true)
	defer c.Stop()
	if got := c.State().Countdown; got != 60 {
		t.Fatalf("countdown after restart: got %d want 60", got)
	}
}

func TestConcurrentRefreshJoinsInFlightCycle(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	var cycles atomic.Int32
	c := NewRefreshController(RefreshOptions{
		Cycle: func(context.Context, Trigger) error {
			cycles.Add(1)
			entered <- struct{}{}
			<-release
			return nil
		},
		NewTicker: func(time.Duration) Ticker { return newFakeTicker() },
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Refresh(context.Background(), TriggerManual)
	}()
	<-entered
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Refresh(context.Background(), TriggerManual)
	}()
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	if cycles.Load() != 1 {
		t.Fatalf("overlapping refreshes should share one cycle, got %d", cycles.Load())
	}
}

func TestJoinedRefreshSurvivesFirstCallerCancel(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{}, 4)
	release := make(chan struct{})
	c := NewRefreshController(RefreshOptions{
		Cycle: func(ctx context.Context, _ Trigger) error {
			entered <- struct{}{}
			<-release
			return ctx.Err()
		},
		NewTicker: func(time.Duration) Ticker { return newFakeTicker() },
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Refresh(reqCtx, TriggerManual)
	}()
	<-entered
	autoErr := make(chan error, 1)
	go func() {
		autoErr <- c.Refresh(context.Background(), TriggerAuto)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	close(release)
	wg.Wait()
	if err := <-autoErr; err != nil {
		t.Fatalf("auto cycle joined to a cancelled manual request: %v", err)
	}
}

func TestSetIntervalShortensRunningCountdown(t *testing.T) {
	t.Parallel()
	c, _ := countingController(t, newFakeTicker())
	c.Start(context.Background())
	defer c.Stop()
	c.SetInterval(10)
	if st := c.State(); st.Countdown != 10 || st.Interval != 10 {
		t.Fatalf("state after interval change: %+v", st)
	}
}
