package party

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	jwttoken "veil/internal/jwt_token"
	"veil/internal/platform/middleware"
	id "veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
	audit "veil/pkg/platform/audit"
	"veil/pkg/platform/secrets"
	"veil/pkg/platform/sentinel"
)

// Store persists registered parties.
type Store interface {
	Create(ctx context.Context, p *Party) error
	FindByID(ctx context.Context, partyID id.PartyID) (*Party, error)
}

type Service struct {
	store    Store
	tokens   *jwttoken.JWTService
	tokenTTL time.Duration
	auditor  audit.Recorder
	logger   *slog.Logger
}

func NewService(store Store, tokens *jwttoken.JWTService, tokenTTL time.Duration, auditor audit.Recorder, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, tokenTTL: tokenTTL, auditor: auditor, logger: logger}
}

// Register creates a party and returns it with the one plaintext secret the
// caller will ever see; only the bcrypt hash is stored.
func (s *Service) Register(ctx context.Context, name string) (*Party, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", dErrors.New(dErrors.CodeInvalidInput, "party name cannot be empty")
	}

	secret, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not generate secret")
	}
	hash, err := secrets.Hash(secret)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not hash secret")
	}

	p := &Party{
		ID:         id.PartyID(uuid.New()),
		Name:       name,
		SecretHash: hash,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, "", dErrors.New(dErrors.CodeConflict, "party name already registered")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "could not store party")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionPartyRegistered,
		Party:     p.ID.String(),
		RequestID: middleware.GetRequestID(ctx),
	})
	return p, secret, nil
}

// IssueToken authenticates a party by id+secret and mints an access token.
// Failures are audited as security events before the error returns.
func (s *Service) IssueToken(ctx context.Context, partyID string, secret string) (string, time.Duration, error) {
	pid, err := id.ParsePartyID(partyID)
	if err != nil {
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	p, err := s.store.FindByID(ctx, pid)
	if err != nil {
		s.auditFailure(ctx, partyID, "unknown_party")
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if !p.Active {
		s.auditFailure(ctx, partyID, "party_inactive")
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err := secrets.Verify(secret, p.SecretHash); err != nil {
		s.auditFailure(ctx, partyID, "bad_secret")
		return "", 0, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(p.ID, s.tokenTTL)
	if err != nil {
		return "", 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue token")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionTokenIssued,
		Party:     p.ID.String(),
		RequestID: middleware.GetRequestID(ctx),
	})
	return token, s.tokenTTL, nil
}

func (s *Service) auditFailure(ctx context.Context, partyID, reason string) {
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionAuthFailed,
		Party:     partyID,
		Reason:    reason,
		RequestID: middleware.GetRequestID(ctx),
	})
}
