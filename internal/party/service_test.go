package party

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	jwttoken "veil/internal/jwt_token"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
	"veil/pkg/platform/secrets"
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
	store   *InMemoryStore
	tokens  *jwttoken.JWTService
	auditor *recordingAuditor
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.tokens = jwttoken.NewJWTService("test-signing-key", "veil", "veil-api")
	s.auditor = &recordingAuditor{}
	s.service = NewService(s.store, s.tokens, 15*time.Minute, s.auditor, slog.New(slog.DiscardHandler))
}

func (s *ServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("returns one-time secret that verifies against stored hash", func() {
		p, secret, err := s.service.Register(ctx, "Credit Bureau")
		s.Require().NoError(err)
		s.NotEmpty(secret)
		s.True(p.Active)

		stored, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.NotEqual(secret, stored.SecretHash)
		s.NoError(secrets.Verify(secret, stored.SecretHash))
	})

	s.Run("audits the registration", func() {
		s.Require().NotEmpty(s.auditor.events)
		event := s.auditor.events[len(s.auditor.events)-1]
		s.Equal(audit.ActionPartyRegistered, event.Action)
		s.NotEmpty(event.Party)
	})

	s.Run("rejects blank names", func() {
		_, _, err := s.service.Register(ctx, "   ")
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects duplicate names regardless of case", func() {
		_, _, err := s.service.Register(ctx, "credit bureau")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestIssueToken() {
	ctx := context.Background()
	p, secret, err := s.service.Register(ctx, "Verifier")
	s.Require().NoError(err)
	s.auditor.events = nil

	s.Run("mints a token the validator accepts", func() {
		token, ttl, err := s.service.IssueToken(ctx, p.ID.String(), secret)
		s.Require().NoError(err)
		s.Equal(15*time.Minute, ttl)

		claims, err := s.tokens.ValidateToken(token)
		s.Require().NoError(err)
		s.Equal(p.ID.String(), claims.PartyID)

		s.Require().Len(s.auditor.events, 1)
		s.Equal(audit.ActionTokenIssued, s.auditor.events[0].Action)
	})

	s.Run("unknown party fails closed and is audited", func() {
		s.auditor.events = nil
		_, _, err := s.service.IssueToken(ctx, id.PartyID(uuid.New()).String(), secret)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.Require().Len(s.auditor.events, 1)
		s.Equal(audit.ActionAuthFailed, s.auditor.events[0].Action)
		s.Equal("unknown_party", s.auditor.events[0].Reason)
	})

	s.Run("wrong secret fails closed and is audited", func() {
		s.auditor.events = nil
		_, _, err := s.service.IssueToken(ctx, p.ID.String(), "not-the-secret")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		s.Require().Len(s.auditor.events, 1)
		s.Equal("bad_secret", s.auditor.events[0].Reason)
	})

	s.Run("malformed party id is unauthorized, not invalid input", func() {
		_, _, err := s.service.IssueToken(ctx, "not-a-uuid", secret)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestIssueTokenInactiveParty() {
	ctx := context.Background()
	p, secret, err := s.service.Register(ctx, "Suspended Org")
	s.Require().NoError(err)

	s.store.mu.Lock()
	s.store.parties[p.ID].Active = false
	s.store.mu.Unlock()

	s.auditor.events = nil
	_, _, err = s.service.IssueToken(ctx, p.ID.String(), secret)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	s.Require().Len(s.auditor.events, 1)
	s.Equal("party_inactive", s.auditor.events[0].Reason)
}
