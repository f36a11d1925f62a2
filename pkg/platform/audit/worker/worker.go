// Package worker drains the audit pipeline into the append store and the
// optional event publisher.
package worker

import (
	"context"
	"log/slog"

	audit "veil/pkg/platform/audit"
)

// Publisher pushes events to an external broker. Optional.
type Publisher interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Worker consumes audit events from a channel and persists them. Store
// failures are logged and the worker keeps draining; the trail is best-effort
// and must never stall the disclosure path.
type Worker struct {
	store     audit.Store
	publisher Publisher
	inbox     <-chan audit.Event
	logger    *slog.Logger
}

func New(store audit.Store, publisher Publisher, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, logger: logger}
}

// Run processes events until ctx is cancelled, then drains what is already
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.handle(ctx, event)
		}
	}
}

func (w *Worker) handle(ctx context.Context, event audit.Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"error", err,
		)
	}
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "audit publish failed",
			"action", event.Action,
			"error", err,
		)
	}
}

func (w *Worker) drain() {
	// Shutdown path: use a background context so buffered events still land.
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.handle(ctx, event)
		default:
			return
		}
	}
}
