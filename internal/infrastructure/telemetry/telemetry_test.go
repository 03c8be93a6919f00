package telemetry_test

import (
	"context"
	"testing"

	"github.com/shopledger/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	p, err := telemetry.NewProvider(ctx, telemetry.Config{Enabled: false, ServiceName: "test"}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NotNil(t, p.Meter("test"))
	assert.NoError(t, p.Shutdown(ctx))
}

func TestLedgerMetrics_Record(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	m, err := telemetry.NewLedgerMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordStockDelta(ctx, 10, false)
	m.RecordStockDelta(ctx, -4, true)
	m.RecordPayment(ctx, "CAPTURE", "PAID", 10000)
	m.RecordIdempotentReplay(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	got := map[string]int64{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			got[md.Name] += dp.Value
		}
	}
	assert.Equal(t, int64(14), got["ledger_stock_delta_units_total"])
	assert.Equal(t, int64(1), got["ledger_payments_total"])
	assert.Equal(t, int64(10000), got["ledger_payment_amount_cents_total"])
	assert.Equal(t, int64(1), got["ledger_payment_idempotent_replays_total"])
}

func TestLedgerMetrics_NilSafe(t *testing.T) {
	var m *telemetry.LedgerMetrics
	assert.NotPanics(t, func() {
		m.RecordStockDelta(context.Background(), 1, false)
		m.RecordRefundTransition(context.Background(), "SUCCEEDED")
	})
	_, err := telemetry.NewLedgerMetrics(nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}
