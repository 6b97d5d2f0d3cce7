package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the daemon's counters.
type Metrics struct {
	cycles        metric.Int64Counter
	actions       metric.Int64Counter
	errors        metric.Int64Counter
	cycleDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on m.
func NewMetrics(m metric.Meter) (*Metrics, error) {
	cycles, err := m.Int64Counter("orch.cycles",
		metric.WithDescription("Completed monitoring cycles"))
	if err != nil {
		return nil, err
	}
	actions, err := m.Int64Counter("orch.actions",
		metric.WithDescription("Workflow transitions and agent calls"))
	if err != nil {
		return nil, err
	}
	errs, err := m.Int64Counter("orch.errors",
		metric.WithDescription("Per-item cycle errors"))
	if err != nil {
		return nil, err
	}
	dur, err := m.Float64Histogram("orch.cycle.duration",
		metric.WithDescription("Cycle wall time"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return &Metrics{cycles: cycles, actions: actions, errors: errs, cycleDuration: dur}, nil
}

// RecordCycle counts one finished cycle.
func (m *Metrics) RecordCycle(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Add(ctx, 1)
	m.cycleDuration.Record(ctx, d.Seconds())
}

// RecordAction counts a rule application.
func (m *Metrics) RecordAction(ctx context.Context, rule, state string) {
	if m == nil {
		return
	}
	m.actions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rule", rule),
		attribute.String("state", state),
	))
}

// RecordError counts a failed item step.
func (m *Metrics) RecordError(ctx context.Context, state string) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}
