package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
	block  chan struct{}
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWriter) written() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func TestKafkaSink_DeliversThroughBus(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w, 8, zaptest.NewLogger(t))
	sink.Start()

	bus := NewInMemoryEventBus(zaptest.NewLogger(t))
	bus.Subscribe(sink)

	owner := uuid.New()
	first := testutil.NewTestEvent("PaymentRecorded", owner)
	second := testutil.NewTestEvent("OrderPaymentStatusChanged", owner)
	require.NoError(t, bus.Publish(context.Background(), first, second))

	require.NoError(t, sink.Close(context.Background()))
	assert.True(t, w.closed)

	msgs := w.written()
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte(owner.String()), msgs[0].Key)
	assert.Equal(t, "event-type", msgs[0].Headers[0].Key)
	assert.Equal(t, []byte("PaymentRecorded"), msgs[0].Headers[0].Value)

	env, err := Unmarshal(msgs[1].Value)
	require.NoError(t, err)
	assert.Equal(t, second.EventID(), env.EventID)
}

func TestKafkaSink_Backpressure(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	sink := NewKafkaSink(w, 1, zaptest.NewLogger(t))
	sink.Start()
	ctx := context.Background()
	owner := uuid.New()

	// the loop takes the first message and blocks on the writer
	require.NoError(t, sink.Handle(ctx, testutil.NewTestEvent("A", owner)))
	require.True(t, testutil.WaitForCondition(func() bool { return len(sink.inbox) == 0 }, time.Second, time.Millisecond))
	require.NoError(t, sink.Handle(ctx, testutil.NewTestEvent("B", owner)))
	assert.ErrorIs(t, sink.Handle(ctx, testutil.NewTestEvent("C", owner)), ErrSinkFull)

	close(w.block)
	require.NoError(t, sink.Close(ctx))
	assert.Len(t, w.written(), 2)
}

func TestKafkaSink_WriteErrorsAreLogged(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}
	sink := NewKafkaSink(w, 0, zaptest.NewLogger(t))
	sink.Start()

	require.NoError(t, sink.Handle(context.Background(), testutil.NewTestEvent("A", uuid.New())))
	require.NoError(t, sink.Close(context.Background()))
	assert.Empty(t, w.written())
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(config.EventConfig{KafkaBrokers: []string{"k1:9092", "k2:9092"}, KafkaTopic: "ledger.events"})
	assert.Equal(t, "ledger.events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
