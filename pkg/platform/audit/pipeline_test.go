package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "veil/pkg/domain"
)

func TestPipelineRecord(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	t.Run("enqueues normalized events", func(t *testing.T) {
		p := NewPipeline(4, logger)
		subject := id.SubjectID(uuid.New())

		p.Record(ctx, Event{Action: ActionDisclosureProcessed, Subject: subject})

		event := <-p.Events()
		assert.Equal(t, subject, event.Subject)
		assert.Equal(t, CategoryCompliance, event.Category)
		assert.False(t, event.Timestamp.IsZero())
	})

	t.Run("drops instead of blocking when the buffer is full", func(t *testing.T) {
		p := NewPipeline(1, logger)

		p.Record(ctx, Event{Action: ActionTokenIssued})
		done := make(chan struct{})
		go func() {
			p.Record(ctx, Event{Action: ActionTokenIssued})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("record blocked on a full buffer")
		}

		// Only the first event is in the buffer.
		<-p.Events()
		select {
		case e := <-p.Events():
			t.Fatalf("unexpected buffered event: %v", e.Action)
		default:
		}
	})
}

func TestActionCategory(t *testing.T) {
	require.Equal(t, CategoryCompliance, ActionRecordDeleted.Category())
	require.Equal(t, CategorySecurity, ActionDisclosureRejected.Category())
	require.Equal(t, CategoryOperations, Action("something_new").Category())
}
