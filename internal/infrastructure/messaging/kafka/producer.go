// Package kafka publishes domain events to Kafka with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/patentdesk/internal/config"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/pkg/errors"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

const (
	maxAttempts     = 3
	maxMessageBytes = 1 << 20
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends domain events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt common.DomainEvent) error
	Close() error
}

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// Producer publishes each event as an EventEnvelope on the topic named after
// its type, keyed by aggregate id so one aggregate's events stay ordered.
type Producer struct {
	writer  WriterInterface
	prefix  string
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer builds a producer for cfg.Brokers. Topics are created on first
// write when the cluster allows it.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            maxAttempts,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	logger.Info("Kafka producer configured",
		logging.Any("brokers", cfg.Brokers),
		logging.String("topic_prefix", cfg.TopicPrefix),
	)
	return NewProducerWithWriter(writer, cfg.TopicPrefix, logger), nil
}

// NewProducerWithWriter wraps an existing writer.
func NewProducerWithWriter(w WriterInterface, prefix string, logger logging.Logger) *Producer {
	return &Producer{writer: w, prefix: prefix, logger: logger, metrics: &ProducerMetrics{}}
}

func (p *Producer) Publish(ctx context.Context, evt common.DomainEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	env, err := EnvelopeFor(evt)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	if len(value) > maxMessageBytes {
		return errors.New(errors.ErrCodeValidation, "message too large")
	}

	msg := kafka.Message{
		Topic: TopicName(p.prefix, evt.EventType()),
		Key:   []byte(evt.AggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType())},
			{Key: "schema_version", Value: []byte(SchemaVersion)},
		},
		Time: env.Timestamp,
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(value)))

	p.logger.Debug("event published",
		logging.String("topic", msg.Topic),
		logging.String("event_id", env.EventID),
		logging.Duration("latency", time.Since(start)),
	)
	return nil
}

// Metrics returns the live counters.
func (p *Producer) Metrics() *ProducerMetrics { return p.metrics }

// Close flushes pending writes. It is idempotent.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event. Used when
// kafka is disabled.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, common.DomainEvent) error { return nil }
func (noopPublisher) Close() error                                      { return nil }
