package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when metrics are built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// LedgerMetrics counts ledger movements. A nil *LedgerMetrics is valid and records nothing.
type LedgerMetrics struct {
	stockDeltaUnits metric.Int64Counter
	stockRejected   metric.Int64Counter
	payments        metric.Int64Counter
	paymentAmount   metric.Int64Counter
	idempotentHits  metric.Int64Counter
	refundsByStatus metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	m := &LedgerMetrics{}
	var err error
	if m.stockDeltaUnits, err = meter.Int64Counter("ledger_stock_delta_units_total",
		metric.WithDescription("Units moved by applied stock deltas"), metric.WithUnit("{units}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.stockRejected, err = meter.Int64Counter("ledger_stock_delta_rejected_total",
		metric.WithDescription("Stock deltas rejected for insufficient stock")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.payments, err = meter.Int64Counter("ledger_payments_total",
		metric.WithDescription("Payments recorded"), metric.WithUnit("{payments}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.paymentAmount, err = meter.Int64Counter("ledger_payment_amount_cents_total",
		metric.WithDescription("Payment amount recorded in minor units"), metric.WithUnit("{cents}")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.idempotentHits, err = meter.Int64Counter("ledger_payment_idempotent_replays_total",
		metric.WithDescription("Payment creations answered with an existing record")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	if m.refundsByStatus, err = meter.Int64Counter("ledger_refund_transitions_total",
		metric.WithDescription("Refund status transitions")); err != nil {
		return nil, fmt.Errorf("failed to create counter: %w", err)
	}
	return m, nil
}

// RecordStockDelta counts an applied delta
func (m *LedgerMetrics) RecordStockDelta(ctx context.Context, signedQty int64, variant bool) {
	if m == nil {
		return
	}
	direction := "in"
	qty := signedQty
	if signedQty < 0 {
		direction = "out"
		qty = -signedQty
	}
	m.stockDeltaUnits.Add(ctx, qty, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.Bool("variant", variant),
	))
}

// RecordStockRejected counts a delta refused for insufficient stock
func (m *LedgerMetrics) RecordStockRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.stockRejected.Add(ctx, 1)
}

// RecordPayment counts a newly recorded payment
func (m *LedgerMetrics) RecordPayment(ctx context.Context, direction, status string, amountCents int64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("direction", direction), attribute.String("status", status))
	m.payments.Add(ctx, 1, attrs)
	m.paymentAmount.Add(ctx, amountCents, attrs)
}

// RecordIdempotentReplay counts a retried payment creation
func (m *LedgerMetrics) RecordIdempotentReplay(ctx context.Context) {
	if m == nil {
		return
	}
	m.idempotentHits.Add(ctx, 1)
}

// RecordRefundTransition counts a refund entering status
func (m *LedgerMetrics) RecordRefundTransition(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.refundsByStatus.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
