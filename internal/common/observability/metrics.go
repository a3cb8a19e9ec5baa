package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// RecordAction counts one dashboard action and its duration. Safe on a zero Observability.
func (o *Observability) RecordAction(ctx context.Context, action, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	)
	if o.actionCounter != nil {
		o.actionCounter.Add(ctx, 1, attrs)
	}
	if o.actionDuration != nil {
		o.actionDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}
