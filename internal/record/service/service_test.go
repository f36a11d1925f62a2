package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"veil/internal/record/store"
	"veil/internal/schema"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
)

// recordingAuditor captures events so tests can assert on the decision trail.
type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(_ context.Context, event audit.Event) {
	a.events = append(a.events, event)
}

type ServiceSuite struct {
	suite.Suite
	registry *schema.Registry
	auditor  *recordingAuditor
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.registry = schema.MustNew([]string{"name", "age", "email"})
	s.auditor = &recordingAuditor{}
	s.service = New(s.registry, store.NewMemory(), s.auditor, slog.New(slog.DiscardHandler))
}

func (s *ServiceSuite) TestReplace() {
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())

	s.Run("stores a valid snapshot and audits it", func() {
		record, err := s.service.Replace(ctx, subject, map[string][]byte{
			"name": []byte("Riley"),
			"age":  []byte("30"),
		})
		s.Require().NoError(err)
		s.Equal(int64(1), record.Version)

		s.Require().Len(s.auditor.events, 1)
		event := s.auditor.events[0]
		s.Equal(audit.ActionRecordReplaced, event.Action)
		s.Equal(subject, event.Subject)
		s.Equal(int64(1), event.RecordVersion)
	})

	s.Run("replacement is whole-snapshot, version bumps", func() {
		record, err := s.service.Replace(ctx, subject, map[string][]byte{"name": []byte("Riley")})
		s.Require().NoError(err)
		s.Equal(int64(2), record.Version)
		s.Len(record.Values, 1)
	})

	s.Run("rejects unknown fields without storing anything", func() {
		before, err := s.service.Get(ctx, subject)
		s.Require().NoError(err)

		_, err = s.service.Replace(ctx, subject, map[string][]byte{
			"name": []byte("Riley"),
			"ssn":  []byte("123-45-6789"),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownField))

		after, err := s.service.Get(ctx, subject)
		s.Require().NoError(err)
		s.Equal(before.Version, after.Version)
	})

	s.Run("rejects empty snapshots", func() {
		_, err := s.service.Replace(ctx, subject, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects zero subject", func() {
		_, err := s.service.Replace(ctx, id.SubjectID{}, map[string][]byte{"name": []byte("x")})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *ServiceSuite) TestGet() {
	ctx := context.Background()

	_, err := s.service.Get(ctx, id.SubjectID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(ctx, id.SubjectID{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestDelete() {
	ctx := context.Background()
	subject := id.SubjectID(uuid.New())

	_, err := s.service.Replace(ctx, subject, map[string][]byte{"name": []byte("Riley")})
	s.Require().NoError(err)
	s.auditor.events = nil

	s.Require().NoError(s.service.Delete(ctx, subject))

	_, err = s.service.Get(ctx, subject)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Require().Len(s.auditor.events, 1)
	s.Equal(audit.ActionRecordDeleted, s.auditor.events[0].Action)

	s.Run("deleting again is not found and not audited", func() {
		s.auditor.events = nil
		err := s.service.Delete(ctx, subject)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.auditor.events)
	})
}
