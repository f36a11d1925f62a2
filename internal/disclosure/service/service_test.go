package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"veil/internal/disclosure"
	"veil/internal/platform/middleware"
	"veil/internal/schema"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
	"veil/pkg/platform/sentinel"
)

// recordingAuditor captures events so tests can assert on the decision trail.
type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(_ context.Context, event audit.Event) {
	a.events = append(a.events, event.Normalize())
}

type ServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *MockRecordStore
	auditor   *recordingAuditor
	service   *Service
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = NewMockRecordStore(s.ctrl)
	s.auditor = &recordingAuditor{}
	registry := schema.MustNew([]string{"name", "age", "ssn"})
	s.service = New(registry, s.mockStore, s.auditor, nil, slog.New(slog.DiscardHandler))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) record(subject id.SubjectID) *disclosure.Record {
	return &disclosure.Record{
		Subject: subject,
		Version: 4,
		Values: map[string][]byte{
			"name": []byte("Riley"),
			"ssn":  []byte("123-45-6789"),
		},
		UploadedAt: time.Now(),
	}
}

func (s *ServiceSuite) TestDisclose_HappyPath() {
	subject := id.SubjectID(uuid.New())
	ctx := middleware.WithPartyID(context.Background(), "party-1")
	s.mockStore.EXPECT().Get(gomock.Any(), subject).Return(s.record(subject), nil)

	result, err := s.service.Disclose(ctx, subject, disclosure.Mask{true, true, false})
	s.Require().NoError(err)

	s.Require().Len(result.Entries, 2)
	s.Equal("name", result.Entries[0].Field)
	s.Equal(disclosure.StatusDisclosed, result.Entries[0].Status)
	s.Equal("ssn", result.Entries[1].Field)
	s.Equal(disclosure.StatusWithheld, result.Entries[1].Status)
	s.Equal(int64(4), result.RecordVersion)

	s.Require().Len(s.auditor.events, 1)
	event := s.auditor.events[0]
	s.Equal(audit.ActionDisclosureProcessed, event.Action)
	s.Equal("party-1", event.Party)
	s.Equal(1, event.FieldsDisclosed)
	s.Equal(1, event.FieldsWithheld)
	s.Equal(int64(4), event.RecordVersion)
}

func (s *ServiceSuite) TestDisclose_Validation() {
	s.Run("zero subject id returns invalid input", func() {
		_, err := s.service.Disclose(context.Background(), id.SubjectID(uuid.Nil), disclosure.Mask{true, true, true})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("missing record returns not found without auditing", func() {
		subject := id.SubjectID(uuid.New())
		s.mockStore.EXPECT().Get(gomock.Any(), subject).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Disclose(context.Background(), subject, disclosure.Mask{true, true, true})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Empty(s.auditor.events)
	})

	s.Run("store failure returns internal", func() {
		subject := id.SubjectID(uuid.New())
		s.mockStore.EXPECT().Get(gomock.Any(), subject).Return(nil, errors.New("connection refused"))

		_, err := s.service.Disclose(context.Background(), subject, disclosure.Mask{true, true, true})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestDisclose_ContractViolationIsAudited() {
	subject := id.SubjectID(uuid.New())
	ctx := middleware.WithPartyID(context.Background(), "party-9")
	s.mockStore.EXPECT().Get(gomock.Any(), subject).Return(s.record(subject), nil)

	_, err := s.service.Disclose(ctx, subject, disclosure.Mask{true})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeMaskLengthMismatch))

	s.Require().Len(s.auditor.events, 1)
	event := s.auditor.events[0]
	s.Equal(audit.ActionDisclosureRejected, event.Action)
	s.Equal(audit.CategorySecurity, event.Category)
	s.Equal("party-9", event.Party)
	s.Equal(string(dErrors.CodeMaskLengthMismatch), event.Reason)
}

func (s *ServiceSuite) TestSchema() {
	s.Equal([]string{"name", "age", "ssn"}, s.service.Schema())
}
