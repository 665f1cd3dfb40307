package inventory

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/khoaugment/pos-api/internal/application/inventory"

var tracer = otel.Tracer(instrumentationName)

type ledgerMetrics struct {
	movements metric.Int64Counter
	alerts    metric.Int64Counter
	conflicts metric.Int64Counter
}

func newLedgerMetrics() *ledgerMetrics {
	meter := otel.Meter(instrumentationName)
	return &ledgerMetrics{
		movements: counter(meter, "inventory.movements", "Movimientos de stock registrados"),
		alerts:    counter(meter, "inventory.low_stock_alerts", "Alertas de stock bajo registradas"),
		conflicts: counter(meter, "inventory.cas_conflicts", "Conflictos de compare-and-swap sobre products.stock"),
	}
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

func (m *ledgerMetrics) recordMovement(ctx context.Context, movementType string) {
	m.movements.Add(ctx, 1, metric.WithAttributes(attribute.String("movement_type", movementType)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
