package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultRefreshInterval = 60

type Trigger string

const (
	TriggerInitial Trigger = "initial"
	TriggerAuto    Trigger = "auto"
	TriggerManual  Trigger = "manual"
	TriggerFilter  Trigger = "filter"
)

// Ticker delivers the one-second countdown ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type CycleFunc func(ctx context.Context, trigger Trigger) error

type RefreshState struct {
	Enabled   bool `json:"enabled"`
	Countdown int  `json:"countdown"`
	Interval  int  `json:"interval"`
}

// RefreshController runs a refresh cycle every interval seconds while
// enabled. At most one cycle per key is in flight; concurrent requests join
// the running one.
type RefreshController struct {
	cycle     CycleFunc
	key       func() string
	newTicker func(time.Duration) Ticker

	mu        sync.Mutex
	base      context.Context
	enabled   bool
	interval  int
	countdown int
	gen       uint64
	cancel    context.CancelFunc

	flight   singleflight.Group
	inflight sync.WaitGroup
}

type RefreshOptions struct {
	Cycle CycleFunc
	// Interval is the countdown length in seconds.
	Interval int
	// Key scopes deduplication; cycles with different keys may overlap.
	Key       func() string
	NewTicker func(time.Duration) Ticker
}

func NewRefreshController(opts RefreshOptions) *RefreshController {
	c := &RefreshController{
		cycle:     opts.Cycle,
		key:       opts.Key,
		interval:  opts.Interval,
		newTicker: opts.NewTicker,
		base:      context.Background(),
	}
	if c.interval <= 0 {
		c.interval = DefaultRefreshInterval
	}
	if c.newTicker == nil {
		c.newTicker = NewTimeTicker
	}
	if c.key == nil {
		c.key = func() string { return "cycle" }
	}
	return c
}

// Start enables auto-refresh. Cycles it fires run under ctx, which outlives
// Stop so an in-flight fetch can complete.
func (c *RefreshController) Start(ctx context.Context) {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return
	}
	c.base = ctx
	c.enabled = true
	c.countdown = c.interval
	c.gen++
	gen := c.gen
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	ticker := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.loop(loopCtx, ticker, gen)
}

func (c *RefreshController) loop(ctx context.Context, ticker Ticker, gen uint64) {
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.tick(gen)
		}
	}
}

// Stop disables auto-refresh. Ticks already delivered to a stopped loop are
// dropped.
func (c *RefreshController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	c.enabled = false
	c.countdown = 0
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *RefreshController) SetEnabled(ctx context.Context, enabled bool) {
	if enabled {
		c.Start(ctx)
		return
	}
	c.Stop()
}

// Tick advances the countdown of the running timer by one second and reports
// whether it fired a cycle.
func (c *RefreshController) Tick() bool {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.tick(gen)
}

func (c *RefreshController) tick(gen uint64) bool {
	c.mu.Lock()
	if !c.enabled || gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.countdown--
	if c.countdown > 0 {
		c.mu.Unlock()
		return false
	}
	c.countdown = c.interval
	ctx := c.base
	c.mu.Unlock()

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.Refresh(ctx, TriggerAuto); err != nil {
			slog.Warn("auto refresh cycle failed", "error", err)
		}
	}()
	return true
}

// Refresh runs a cycle now without touching the countdown.
func (c *RefreshController) Refresh(ctx context.Context, trigger Trigger) error {
	key := c.key()
	// Joined callers share the cycle, so the first caller's cancellation
	// must not abort it. The backend's request timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	_, err, joined := c.flight.Do(key, func() (any, error) {
		return nil, c.cycle(shared, trigger)
	})
	if joined {
		slog.Debug("refresh joined in-flight cycle", "trigger", trigger, "key", key)
	}
	return err
}

func (c *RefreshController) SetInterval(seconds int) {
	if seconds <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interval = seconds
	if c.enabled && c.countdown > seconds {
		c.countdown = seconds
	}
}

func (c *RefreshController) State() RefreshState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RefreshState{Enabled: c.enabled, Countdown: c.countdown, Interval: c.interval}
}

// Wait blocks until auto-fired cycles have finished.
func (c *RefreshController) Wait() {
	c.inflight.Wait()
}
