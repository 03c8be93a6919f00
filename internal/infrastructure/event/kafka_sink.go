package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopledger/backend/internal/domain/shared"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrSinkFull is returned when the sink buffer cannot take another event
var ErrSinkFull = errors.New("kafka sink buffer full")

// MessageWriter is the subset of *kafka.Writer the sink uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink forwards every ledger event to a Kafka topic. It subscribes to
// the bus as a wildcard handler; Handle only enqueues, and a background loop
// writes batches. Messages are keyed by owner so one owner's events stay on
// one partition in publish order.
type KafkaSink struct {
	writer   MessageWriter
	logger   *zap.Logger
	inbox    chan kafka.Message
	done     chan struct{}
	stopOnce sync.Once
}

// NewKafkaWriter builds the writer for the configured brokers and topic
func NewKafkaWriter(cfg config.EventConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaSink creates a sink over writer with room for buffer pending events
func NewKafkaSink(writer MessageWriter, buffer int, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &KafkaSink{
		writer: writer,
		logger: logger.Named("kafka_sink"),
		inbox:  make(chan kafka.Message, buffer),
		done:   make(chan struct{}),
	}
}

// EventTypes returns nil: the sink takes every event
func (s *KafkaSink) EventTypes() []string { return nil }

// Handle encodes e and queues it for delivery
func (s *KafkaSink) Handle(_ context.Context, e shared.DomainEvent) error {
	value, err := Marshal(e)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.OwnerID().String()),
		Value: value,
		Time:  e.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(e.EventType())},
			{Key: "event-id", Value: []byte(e.EventID().String())},
		},
	}
	select {
	case s.inbox <- msg:
		return nil
	default:
		return ErrSinkFull
	}
}

// Start runs the delivery loop until Close
func (s *KafkaSink) Start() {
	go func() {
		defer close(s.done)
		for msg := range s.inbox {
			s.write(msg)
		}
	}()
}

// Close drains queued events, then closes the writer. ctx bounds the wait.
func (s *KafkaSink) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.inbox) })
	select {
	case <-s.done:
	case <-ctx.Done():
		s.logger.Warn("kafka sink closed before draining", zap.Int("pending", len(s.inbox)))
	}
	return s.writer.Close()
}

func (s *KafkaSink) write(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Error("failed to deliver ledger event",
			zap.String("owner_id", string(msg.Key)),
			zap.Error(err),
		)
	}
}

var _ shared.EventHandler = (*KafkaSink)(nil)
