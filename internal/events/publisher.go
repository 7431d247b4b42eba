// Package events announces completed assessments on Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// EventTypeAssessmentCompleted is carried in the event-type header.
const EventTypeAssessmentCompleted = "assessment.completed"

// Source identifies this service in published events.
const Source = "preeclampsia-risk"

// AssessmentEvent is the message payload. It omits the feature vector.
type AssessmentEvent struct {
	EventID      string                   `json:"event_id"`
	Type         string                   `json:"type"`
	Source       string                   `json:"source"`
	AssessmentID string                   `json:"assessment_id"`
	PatientRef   string                   `json:"patient_ref,omitempty"`
	Category     domain.DiagnosisCategory `json:"category"`
	RawLabel     string                   `json:"raw_label"`
	BMI          float64                  `json:"bmi"`
	ModelName    string                   `json:"model_name"`
	ModelVersion string                   `json:"model_version"`
	RequiresCare bool                     `json:"requires_clinical_action"`
	AssessedAt   time.Time                `json:"assessed_at"`
	PublishedAt  time.Time                `json:"published_at"`
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultPublishTimeout bounds a single publish when the config leaves it unset.
const DefaultPublishTimeout = 2 * time.Second

// KafkaPublisher writes one message per assessment, keyed by assessment id.
// Publishing is detached from the caller's context and bounded by timeout.
type KafkaPublisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *logrus.Logger
}

// NewKafkaPublisher creates an asynchronous writer for topic. Delivery
// failures are logged by the writer's completion callback.
func NewKafkaPublisher(config domain.EventsConfig, logger *logrus.Logger) (*KafkaPublisher, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	if config.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: publishTimeout(config.PublishTimeout),
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			for _, m := range messages {
				logger.WithError(err).WithFields(logrus.Fields{
					"assessment_id": string(m.Key),
					"topic":         config.Topic,
				}).Error("Failed to deliver assessment event")
			}
		},
	}
	return newKafkaPublisher(writer, config.Topic, config.PublishTimeout, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, timeout time.Duration, logger *logrus.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, timeout: publishTimeout(timeout), logger: logger}
}

func publishTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultPublishTimeout
	}
	return d
}

// NewEvent builds the payload for result.
func NewEvent(result *domain.AssessmentResult) AssessmentEvent {
	return AssessmentEvent{
		EventID:      uuid.New().String(),
		Type:         EventTypeAssessmentCompleted,
		Source:       Source,
		AssessmentID: result.ID,
		PatientRef:   result.PatientRef,
		Category:     result.Category,
		RawLabel:     result.RawLabel,
		BMI:          result.BMI,
		ModelName:    result.Model.Name,
		ModelVersion: result.Model.Version,
		RequiresCare: result.Category.RequiresClinicalAction(),
		AssessedAt:   result.AssessedAt,
		PublishedAt:  time.Now().UTC(),
	}
}

func (p *KafkaPublisher) PublishAssessment(ctx context.Context, result *domain.AssessmentResult) error {
	event := NewEvent(result)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(result.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventTypeAssessmentCompleted)},
			{Key: "source", Value: []byte(Source)},
			{Key: "category", Value: []byte(result.Category)},
		},
	}

	// Outlives the request; bounded by the publish timeout.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(pubCtx, message); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"event_id":      event.EventID,
			"assessment_id": result.ID,
		}).Error("Failed to publish event")
		return fmt.Errorf("failed to publish assessment %s: %w", result.ID, err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id":      event.EventID,
		"assessment_id": result.ID,
		"topic":         p.topic,
	}).Debug("Event published")
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAssessment(context.Context, *domain.AssessmentResult) error { return nil }

func (NoopPublisher) Close() error { return nil }

// New returns a Kafka publisher when events are enabled, otherwise a no-op.
func New(config domain.EventsConfig, logger *logrus.Logger) (domain.EventPublisher, error) {
	if !config.Enabled {
		return NoopPublisher{}, nil
	}
	return NewKafkaPublisher(config, logger)
}
