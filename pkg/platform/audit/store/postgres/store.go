// Package postgres persists audit events in PostgreSQL for long retention.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	audit "veil/pkg/platform/audit"
)

// Store appends audit events to the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	event = event.Normalize()
	query := `
		INSERT INTO audit_events
			(category, occurred_at, action, subject_id, party_id,
			 fields_disclosed, fields_withheld, record_version, reason, request_id, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	var subject any
	if !event.Subject.IsZero() {
		subject = event.Subject.String()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(event.Category),
		event.Timestamp,
		string(event.Action),
		subject,
		nullable(event.Party),
		event.FieldsDisclosed,
		event.FieldsWithheld,
		event.RecordVersion,
		nullable(event.Reason),
		nullable(event.RequestID),
		nullable(event.Device),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// CountByAction returns how many events of each given action exist. Used by
// integration tests and retention jobs.
func (s *Store) CountByAction(ctx context.Context, actions ...audit.Action) (map[audit.Action]int, error) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, COUNT(*) FROM audit_events WHERE action = ANY($1) GROUP BY action`,
		pq.Array(names),
	)
	if err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}
	defer rows.Close()

	counts := make(map[audit.Action]int, len(actions))
	for rows.Next() {
		var action string
		var n int
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan audit count: %w", err)
		}
		counts[audit.Action(action)] = n
	}
	return counts, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
