// Package events delivers domain events from application services to the
// configured publisher. Delivery is best effort: a failed publish is logged
// and counted, never returned to the caller.
package events

import (
	"context"
	"time"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

const publishTimeout = 5 * time.Second

// Publisher sends one event.
type Publisher interface {
	Publish(ctx context.Context, evt common.DomainEvent) error
}

// Emitter wraps a Publisher. A nil *Emitter drops every event.
type Emitter struct {
	publisher Publisher
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

func NewEmitter(p Publisher, metrics *prometheus.AppMetrics, logger logging.Logger) *Emitter {
	return &Emitter{publisher: p, metrics: metrics, logger: logger}
}

// Emit publishes evt. The request context's cancellation is not inherited so
// an event is not lost when the client disconnects after the write committed.
func (e *Emitter) Emit(ctx context.Context, evt common.DomainEvent) {
	if e == nil || e.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := e.publisher.Publish(ctx, evt)
	e.metrics.RecordEvent(evt.EventType(), err == nil)
	if err != nil {
		e.logger.Warn("failed to publish event",
			logging.String("event_type", evt.EventType()),
			logging.String("aggregate_id", evt.AggregateID()),
			logging.Err(err),
		)
	}
}
