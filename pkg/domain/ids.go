// Package domain holds shared value types used across modules. Typed IDs keep
// subject and party identifiers from being swapped at call sites.
package domain

import (
	"github.com/google/uuid"

	dErrors "veil/pkg/domain-errors"
)

// SubjectID identifies the person whose record is stored and filtered.
type SubjectID uuid.UUID

// PartyID identifies a registered requesting party.
type PartyID uuid.UUID

func (s SubjectID) String() string { return uuid.UUID(s).String() }
func (p PartyID) String() string   { return uuid.UUID(p).String() }

func (s SubjectID) IsZero() bool { return uuid.UUID(s) == uuid.Nil }
func (p PartyID) IsZero() bool   { return uuid.UUID(p) == uuid.Nil }

// Text marshaling keeps typed IDs serializing as canonical UUID strings; a
// defined type does not inherit uuid.UUID's marshalers.

func (s SubjectID) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (p PartyID) MarshalText() ([]byte, error)   { return []byte(p.String()), nil }

func (s *SubjectID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*s = SubjectID(u)
	return nil
}

func (p *PartyID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*p = PartyID(u)
	return nil
}

// ParseSubjectID constructs a SubjectID from external input.
//
// Usage: call from handlers when parsing path parameters; direct casting
// bypasses validation.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return SubjectID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid subject id")
	}
	return SubjectID(u), nil
}

// ParsePartyID constructs a PartyID from external input.
func ParsePartyID(s string) (PartyID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return PartyID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "invalid party id")
	}
	return PartyID(u), nil
}
