package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"veil/internal/disclosure"
	id "veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

// Postgres persists subject snapshots in a single row per subject. The upsert
// swaps payload and bumps the version in one statement, which gives readers
// the atomic snapshot-replacement guarantee without explicit locking.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("marshal record payload: %w", err)
	}

	query := `
		INSERT INTO subject_records (subject_id, version, payload, uploaded_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE SET
			version = subject_records.version + 1,
			payload = EXCLUDED.payload,
			uploaded_at = EXCLUDED.uploaded_at
		RETURNING version, uploaded_at
	`
	record := &disclosure.Record{Subject: subject}
	now := time.Now().UTC()
	if err := s.pool.QueryRow(ctx, query, subject.String(), payload, now).
		Scan(&record.Version, &record.UploadedAt); err != nil {
		return nil, fmt.Errorf("replace record: %w", err)
	}

	record.Values = make(map[string][]byte, len(values))
	for name, v := range values {
		record.Values[name] = append([]byte(nil), v...)
	}
	return record, nil
}

func (s *Postgres) Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error) {
	query := `SELECT version, payload, uploaded_at FROM subject_records WHERE subject_id = $1`

	var payload []byte
	record := &disclosure.Record{Subject: subject}
	err := s.pool.QueryRow(ctx, query, subject.String()).
		Scan(&record.Version, &payload, &record.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	if err := json.Unmarshal(payload, &record.Values); err != nil {
		return nil, fmt.Errorf("unmarshal record payload: %w", err)
	}
	return record, nil
}

func (s *Postgres) Delete(ctx context.Context, subject id.SubjectID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subject_records WHERE subject_id = $1`, subject.String())
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
