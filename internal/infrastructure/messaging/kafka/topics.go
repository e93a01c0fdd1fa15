package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/patentdesk/pkg/errors"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

// Topic names, before the configured prefix is applied. Each matches the
// event type published on it.
const (
	TopicPatentCreated         = "patent.created"
	TopicPatentUpdated         = "patent.updated"
	TopicPatentDeleted         = "patent.deleted"
	TopicPatentStatusChanged   = "patent.status_changed"
	TopicPatentReportGenerated = "patent.report_generated"
	TopicDocumentUploaded      = "document.uploaded"
	TopicDocumentDeleted       = "document.deleted"
	TopicSubscriptionChanged   = "subscription.changed"
)

// AllTopics lists every topic the service publishes to.
func AllTopics() []string {
	return []string{
		TopicPatentCreated,
		TopicPatentUpdated,
		TopicPatentDeleted,
		TopicPatentStatusChanged,
		TopicPatentReportGenerated,
		TopicDocumentUploaded,
		TopicDocumentDeleted,
		TopicSubscriptionChanged,
	}
}

// TopicName joins prefix and topic.
func TopicName(prefix, topic string) string {
	return prefix + topic
}

const (
	// EventSource identifies this service in the envelope.
	EventSource = "patentdesk"
	// SchemaVersion is bumped on breaking payload changes.
	SchemaVersion = "v1"
)

// EventEnvelope standardizes event messages.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEventEnvelope wraps payload in a fresh envelope.
func NewEventEnvelope(eventType, source string, payload any) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// EnvelopeFor wraps a domain event, reusing its id, type and timestamp.
func EnvelopeFor(evt common.DomainEvent) (*EventEnvelope, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event")
	}
	return &EventEnvelope{
		EventID:       evt.EventID(),
		EventType:     evt.EventType(),
		Source:        EventSource,
		Timestamp:     evt.OccurredAt(),
		SchemaVersion: SchemaVersion,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeSerialization, "empty payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal payload")
	}
	return nil
}
