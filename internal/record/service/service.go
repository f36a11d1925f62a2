// Package service owns the subject record lifecycle: atomic snapshot
// replacement, retrieval and erasure. The disclosure filter only ever sees
// snapshots that went through the validation here.
package service

import (
	"context"
	"errors"
	"log/slog"

	"veil/internal/disclosure"
	"veil/internal/platform/middleware"
	"veil/internal/schema"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
	"veil/pkg/platform/sentinel"
)

// Store persists subject snapshots. Implementations must make Replace atomic:
// a concurrent reader sees either the previous snapshot or the new one, never
// a mix.
type Store interface {
	Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error)
	Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error)
	Delete(ctx context.Context, subject id.SubjectID) error
}

type Service struct {
	registry *schema.Registry
	store    Store
	auditor  audit.Recorder
	logger   *slog.Logger
}

func New(registry *schema.Registry, store Store, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{registry: registry, store: store, auditor: auditor, logger: logger}
}

// Replace validates the uploaded values against the schema and swaps the
// subject's snapshot in one step. There is no partial update path: either the
// whole snapshot is accepted or nothing changes.
func (s *Service) Replace(ctx context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error) {
	if subject.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if err := disclosure.ValidateValues(s.registry, values); err != nil {
		return nil, err
	}

	record, err := s.store.Replace(ctx, subject, values)
	if err != nil {
		s.logger.ErrorContext(ctx, "record replace failed",
			"subject_id", subject.String(),
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not store record")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:        audit.ActionRecordReplaced,
		Subject:       subject,
		Party:         middleware.GetPartyID(ctx),
		RecordVersion: record.Version,
		RequestID:     middleware.GetRequestID(ctx),
		Device:        deviceSummary(ctx),
	})
	return record, nil
}

// Get returns the subject's current snapshot.
func (s *Service) Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error) {
	if subject.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	record, err := s.store.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no record for subject")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load record")
	}
	return record, nil
}

// Delete erases the subject's snapshot entirely.
func (s *Service) Delete(ctx context.Context, subject id.SubjectID) error {
	if subject.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if err := s.store.Delete(ctx, subject); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no record for subject")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete record")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionRecordDeleted,
		Subject:   subject,
		Party:     middleware.GetPartyID(ctx),
		RequestID: middleware.GetRequestID(ctx),
		Device:    deviceSummary(ctx),
	})
	return nil
}

func deviceSummary(ctx context.Context) string {
	info := middleware.GetDevice(ctx)
	if info.Browser == "" && info.OS == "" {
		return ""
	}
	return info.Browser + " / " + info.OS
}
