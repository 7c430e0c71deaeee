package dashboard

import (
	"context"
	"sync"
	"time"
)

// Alert reports that the failure count rose between two stats fetches.
type Alert struct {
	Seq      uint64    `json:"seq"`
	Previous int       `json:"previous"`
	Current  int       `json:"current"`
	At       time.Time `json:"at"`
}

type AlertSink interface {
	Alert(ctx context.Context, alert Alert)
}

type AlertSinkFunc func(ctx context.Context, alert Alert)

func (f AlertSinkFunc) Alert(ctx context.Context, alert Alert) {
	f(ctx, alert)
}

type multiSink []AlertSink

func (m multiSink) Alert(ctx context.Context, alert Alert) {
	for _, sink := range m {
		sink.Alert(ctx, alert)
	}
}

func MultiSink(sinks ...AlertSink) AlertSink {
	out := make(multiSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			out = append(out, sink)
		}
	}
	return out
}

// Alerter tracks the last observed failure count. The first observation only
// sets the baseline.
type Alerter struct {
	sink AlertSink
	now  func() time.Time

	mu       sync.Mutex
	baseline int
	seq      uint64
	last     Alert
}

func NewAlerter(sink AlertSink, now func() time.Time) *Alerter {
	if now == nil {
		now = time.Now
	}
	return &Alerter{sink: sink, now: now}
}

// Observe records failed as the new baseline and reports whether an alert
// was raised.
func (a *Alerter) Observe(ctx context.Context, failed int, soundEnabled bool) bool {
	a.mu.Lock()
	previous := a.baseline
	a.baseline = failed
	if !soundEnabled || previous <= 0 || failed <= previous {
		a.mu.Unlock()
		return false
	}
	a.seq++
	alert := Alert{Seq: a.seq, Previous: previous, Current: failed, At: a.now()}
	a.last = alert
	a.mu.Unlock()

	if a.sink != nil {
		a.sink.Alert(ctx, alert)
	}
	return true
}

func (a *Alerter) Baseline() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.baseline
}

func (a *Alerter) Last() Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}
