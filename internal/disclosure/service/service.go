// Package service orchestrates disclosure requests: it loads the subject's
// snapshot, runs the pure filter, and records the decision. All side effects
// of a disclosure live here so the filter itself stays replayable.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"veil/internal/disclosure"
	"veil/internal/disclosure/metrics"
	"veil/internal/platform/middleware"
	"veil/internal/schema"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
	"veil/pkg/platform/sentinel"
)

// RecordStore is the read side of the snapshot store.
type RecordStore interface {
	Get(ctx context.Context, subject id.SubjectID) (*disclosure.Record, error)
}

type Service struct {
	registry *schema.Registry
	records  RecordStore
	auditor  audit.Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

func New(registry *schema.Registry, records RecordStore, auditor audit.Recorder, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		registry: registry,
		records:  records,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("veil/disclosure"),
	}
}

// Schema returns the field names in ordinal order, so callers can construct
// masks against the same ordering the filter will use.
func (s *Service) Schema() []string {
	return s.registry.Fields()
}

// Disclose loads the subject's snapshot and applies the mask. The result is
// fully derived from (mask, snapshot); the audit event records the decision
// counts, never the values.
func (s *Service) Disclose(ctx context.Context, subject id.SubjectID, mask disclosure.Mask) (*disclosure.Result, error) {
	ctx, span := s.tracer.Start(ctx, "disclosure.Disclose",
		trace.WithAttributes(
			attribute.String("subject_id", subject.String()),
			attribute.Int("mask_length", len(mask)),
		))
	defer span.End()

	start := time.Now()

	if subject.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}

	record, err := s.records.Get(ctx, subject)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.observeRejection("not_found", start)
			return nil, dErrors.New(dErrors.CodeNotFound, "no record for subject")
		}
		span.SetStatus(codes.Error, "snapshot load failed")
		span.RecordError(err)
		s.observeRejection("error", start)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load record")
	}

	result, err := disclosure.Filter(s.registry, mask, record)
	if err != nil {
		// Contract violations are security-relevant: somebody sent a mask or
		// stored a record that disagrees with the schema.
		s.auditor.Record(ctx, audit.Event{
			Action:    audit.ActionDisclosureRejected,
			Subject:   subject,
			Party:     middleware.GetPartyID(ctx),
			Reason:    string(dErrors.CodeOf(err)),
			RequestID: middleware.GetRequestID(ctx),
		})
		span.SetStatus(codes.Error, "filter rejected request")
		span.RecordError(err)
		s.observeRejection("rejected", start)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("fields_disclosed", result.DisclosedCount()),
		attribute.Int("fields_withheld", result.WithheldCount()),
	)

	s.auditor.Record(ctx, audit.Event{
		Action:          audit.ActionDisclosureProcessed,
		Subject:         subject,
		Party:           middleware.GetPartyID(ctx),
		FieldsDisclosed: result.DisclosedCount(),
		FieldsWithheld:  result.WithheldCount(),
		RecordVersion:   record.Version,
		RequestID:       middleware.GetRequestID(ctx),
		Device:          deviceSummary(ctx),
	})
	if s.metrics != nil {
		s.metrics.ObserveDisclosure("processed", result.DisclosedCount(), result.WithheldCount(), start)
	}

	return result, nil
}

func (s *Service) observeRejection(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveRejection(outcome, start)
	}
}

func deviceSummary(ctx context.Context) string {
	info := middleware.GetDevice(ctx)
	if info.Browser == "" && info.OS == "" {
		return ""
	}
	return info.Browser + " / " + info.OS
}
