package audit

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is what domain services see: fire-and-forget event emission.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "veil_audit_events_dropped_total",
	Help: "Audit events dropped because the pipeline buffer was full",
})

// Pipeline is a buffered, non-blocking Recorder. A full buffer drops the
// event and counts the drop; an audit stall must never block a disclosure.
type Pipeline struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewPipeline creates a pipeline with the given buffer size.
func NewPipeline(bufferSize int, logger *slog.Logger) *Pipeline {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Pipeline{
		inbox:  make(chan Event, bufferSize),
		logger: logger,
	}
}

// Record enqueues an event without blocking the caller.
func (p *Pipeline) Record(ctx context.Context, event Event) {
	event = event.Normalize()
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
		p.logger.WarnContext(ctx, "audit pipeline full, event dropped",
			"action", event.Action,
			"request_id", event.RequestID,
		)
	}
}

// Events exposes the consume side for the worker.
func (p *Pipeline) Events() <-chan Event {
	return p.inbox
}

// NopRecorder discards events; used in tests that do not assert on auditing.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
