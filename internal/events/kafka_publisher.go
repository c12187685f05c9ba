// Package events publishes prediction lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ignite/burnout-monitor/internal/domain"
)

// EventPredictionCreated is the type of the event emitted after a result is persisted.
const EventPredictionCreated = "prediction.created"

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope wraps every published payload.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// PredictionCreated is the payload of EventPredictionCreated. It carries the
// summary consumers route on, not the full feature vector.
type PredictionCreated struct {
	PredictionID string           `json:"prediction_id"`
	SubjectID    string           `json:"subject_id"`
	RiskLevel    domain.RiskLevel `json:"risk_level"`
	RiskScore    float64          `json:"risk_score"`
	Confidence   float64          `json:"confidence"`
	ModelVersion string           `json:"model_version"`
	PredictedAt  time.Time        `json:"predicted_at"`
}

// KafkaPublisher implements prediction.Observer by writing one message per
// result, keyed by subject so a subject's events stay ordered.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, topic), nil
}

// NewPublisherWithWriter creates a publisher over an existing writer.
func NewPublisherWithWriter(w MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, now: func() time.Time { return time.Now().UTC() }}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// PredictionCreated publishes EventPredictionCreated for r.
func (p *KafkaPublisher) PredictionCreated(ctx context.Context, r *domain.PredictionResult) error {
	data, err := json.Marshal(PredictionCreated{
		PredictionID: r.ID,
		SubjectID:    r.SubjectID,
		RiskLevel:    r.RiskLevel,
		RiskScore:    r.RiskScore,
		Confidence:   r.Confidence,
		ModelVersion: r.ModelVersion,
		PredictedAt:  r.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}

	now := p.now()
	payload, err := json.Marshal(Envelope{
		EventID:    uuid.NewString(),
		EventType:  EventPredictionCreated,
		OccurredAt: now,
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("marshaling event envelope: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(r.SubjectID),
		Value: payload,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventPredictionCreated)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", EventPredictionCreated, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
