package call

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Tracker keeps live call counts and turn counters for the metrics
// endpoint.
type Tracker struct {
	mu       sync.Mutex
	active   int64
	total    int64
	turns    metric.Int64Counter
	failures metric.Int64Counter
}

func NewTracker() (*Tracker, error) {
	t := &Tracker{}
	meter := otel.Meter("github.com/frontdesk-labs/frontdesk-core/call")

	activeGauge, err := meter.Int64ObservableGauge("frontdesk.calls.active",
		metric.WithDescription("Connections currently serving a caller"))
	if err != nil {
		return nil, err
	}
	totalGauge, err := meter.Int64ObservableGauge("frontdesk.calls.total",
		metric.WithDescription("Connections accepted since start"))
	if err != nil {
		return nil, err
	}
	if _, err := meter.RegisterCallback(func(ctx context.Context, obs metric.Observer) error {
		active, total := t.snapshot()
		obs.ObserveInt64(activeGauge, active)
		obs.ObserveInt64(totalGauge, total)
		return nil
	}, activeGauge, totalGauge); err != nil {
		return nil, err
	}

	t.turns, err = meter.Int64Counter("frontdesk.turns.total",
		metric.WithDescription("Caller turns processed"))
	if err != nil {
		return nil, err
	}
	t.failures, err = meter.Int64Counter("frontdesk.turns.failed",
		metric.WithDescription("Caller turns that ended in the fallback or error path"))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tracker) CallStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active++
	t.total++
}

func (t *Tracker) CallEnded() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active > 0 {
		t.active--
	}
}

func (t *Tracker) TurnProcessed(ctx context.Context) {
	if t.turns != nil {
		t.turns.Add(ctx, 1)
	}
}

func (t *Tracker) TurnFailed(ctx context.Context) {
	if t.failures != nil {
		t.failures.Add(ctx, 1)
	}
}

// Active reports the number of in-flight calls.
func (t *Tracker) Active() int64 {
	active, _ := t.snapshot()
	return active
}

func (t *Tracker) snapshot() (int64, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active, t.total
}
