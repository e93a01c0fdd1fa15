// Package common holds small value types shared by the domain and interface
// layers: domain event plumbing, request-context keys and health reporting.
package common

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents a significant event in the domain.
type DomainEvent interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseEvent provides common fields for domain events.
type BaseEvent struct {
	ID        string    `json:"event_id"`
	Type      string    `json:"event_type"`
	Timestamp time.Time `json:"occurred_at"`
	AggID     string    `json:"aggregate_id"`
}

// NewBaseEvent stamps a new event of eventType for the aggregate aggID.
func NewBaseEvent(eventType, aggID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AggID:     aggID,
	}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggID }

// ContextKey is the type of request-scoped context keys.
type ContextKey string

const (
	// ContextKeyUserID carries the authenticated user's uuid.UUID.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyUserEmail carries the authenticated user's email.
	ContextKeyUserEmail ContextKey = "user_email"
	// ContextKeyRequestID carries the request correlation id.
	ContextKeyRequestID ContextKey = "request_id"
)
