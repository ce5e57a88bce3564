package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"

	sourceName = "student-rentals"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("events: publisher closed")

// KafkaConfig configures the Kafka writer.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	MaxAttempts  int
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events to a Kafka topic keyed by room id, so
// every event for one room lands on the same partition in commit order.
type KafkaPublisher struct {
	writer messageWriter
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewKafkaPublisher builds a publisher backed by a kafka-go Writer.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, broker := range cfg.Brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if len(brokers) == 0 {
		return nil, fmt.Errorf("events: at least one broker is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("events: topic cannot be empty")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        strings.TrimSpace(cfg.Topic),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  cfg.MaxAttempts,
		BatchTimeout: cfg.BatchTimeout,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			logger.Error(fmt.Sprintf(msg, args...), "component", "kafka")
		}),
	}
	return newKafkaPublisher(writer, logger), nil
}

func newKafkaPublisher(writer messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish encodes event as JSON and writes it synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event BookingEvent) error {
	if p == nil {
		return fmt.Errorf("KafkaPublisher is nil")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	msg, err := encodeMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: write %s for booking %q: %w", event.Type, event.BookingID, err)
	}
	p.logger.DebugContext(ctx, "event published", "event_type", string(event.Type), "booking_id", event.BookingID)
	return nil
}

// Close flushes pending writes and releases the writer. It is idempotent.
func (p *KafkaPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

func encodeMessage(event BookingEvent) (kafka.Message, error) {
	if event.RoomID == "" {
		return kafka.Message{}, fmt.Errorf("events: room id is required as partition key")
	}
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("events: encode %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.RoomID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.NewString())},
			{Key: HeaderEventType, Value: []byte(event.Type)},
			{Key: HeaderSource, Value: []byte(sourceName)},
		},
	}, nil
}
