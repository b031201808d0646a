// Package stream mirrors persisted audit entries onto a Kafka topic for
// downstream compliance consumers. The audit store stays the system of record;
// the mirror is best effort, guarded by a circuit breaker and fed through a
// bounded queue off the request path.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "minbar/pkg/platform/audit"
	"minbar/pkg/platform/circuit"
)

// ErrBreakerOpen is returned when the sink refuses to publish.
var ErrBreakerOpen = errors.New("audit stream breaker open")

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Sink publishes audit entries keyed by target ID so a target's history stays ordered.
type Sink struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Sink)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) { s.metrics = m }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Sink) { s.breaker = b }
}

func NewSink(producer Producer, topic string, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-stream"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewKafkaClient builds a franz-go client that produces to topic by default.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

type message struct {
	ID         string         `json:"id"`
	Category   string         `json:"category"`
	ActionType string         `json:"action_type"`
	ActorID    string         `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	ActorName  string         `json:"actor_name,omitempty"`
	TargetType string         `json:"target_type"`
	TargetID   string         `json:"target_id"`
	TargetName string         `json:"target_name,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  string         `json:"timestamp"`
	Outcome    string         `json:"outcome"`
}

func encode(e audit.Entry) ([]byte, error) {
	return json.Marshal(message{
		ID:         e.ID,
		Category:   string(e.ActionType.Category()),
		ActionType: string(e.ActionType),
		ActorID:    e.PerformedBy.ID,
		ActorRole:  string(e.PerformedBy.Role),
		ActorName:  e.PerformedBy.Name,
		TargetType: string(e.Target.Type),
		TargetID:   e.Target.ID,
		TargetName: e.Target.Name,
		Details:    e.Details,
		Timestamp:  e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Outcome:    string(e.Outcome),
	})
}

// Publish sends one entry synchronously.
func (s *Sink) Publish(ctx context.Context, entry audit.Entry) error {
	if !s.breaker.Allow() {
		if s.metrics != nil {
			s.metrics.BreakerDropped.Inc()
		}
		return ErrBreakerOpen
	}

	value, err := encode(entry)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.Target.ID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(entry.ActionType.Category())},
			{Key: "action_type", Value: []byte(entry.ActionType)},
		},
	}

	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		_, change := s.breaker.RecordFailure()
		if s.metrics != nil {
			s.metrics.PublishErrors.Inc()
			if change.Opened {
				s.metrics.setBreakerState(true)
			}
		}
		if change.Opened {
			s.logger.WarnContext(ctx, "audit stream breaker opened", "topic", s.topic, "error", err)
		}
		return fmt.Errorf("produce audit entry: %w", err)
	}

	_, change := s.breaker.RecordSuccess()
	if s.metrics != nil {
		s.metrics.Published.Inc()
		if change.Closed {
			s.metrics.setBreakerState(false)
		}
	}
	if change.Closed {
		s.logger.InfoContext(ctx, "audit stream breaker closed", "topic", s.topic)
	}
	return nil
}
