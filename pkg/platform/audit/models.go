// Package audit defines the append-only event trail. Events capture who asked
// for what and what the engine decided, never the field values themselves, so
// the trail can be retained long after the data is erased.
package audit

import (
	"context"
	"time"

	id "veil/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and downstream routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// record uploads, erasures, disclosure decisions.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// auth failures, rejected masks, unknown-field attempts.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// Action names one auditable thing that happened.
type Action string

const (
	ActionRecordReplaced      Action = "record_replaced"
	ActionRecordDeleted       Action = "record_deleted"
	ActionDisclosureProcessed Action = "disclosure_processed"
	ActionDisclosureRejected  Action = "disclosure_rejected"
	ActionPartyRegistered     Action = "party_registered"
	ActionTokenIssued         Action = "token_issued"
	ActionAuthFailed          Action = "auth_failed"
)

// actionCategories maps each action to its category; unknown actions default
// to operations.
var actionCategories = map[Action]EventCategory{
	ActionRecordReplaced:      CategoryCompliance,
	ActionRecordDeleted:       CategoryCompliance,
	ActionDisclosureProcessed: CategoryCompliance,
	ActionDisclosureRejected:  CategorySecurity,
	ActionAuthFailed:          CategorySecurity,
	ActionPartyRegistered:     CategoryOperations,
	ActionTokenIssued:         CategoryOperations,
}

// Category returns the EventCategory for this action.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and publishers can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	Action    Action        `json:"action"`
	Subject   id.SubjectID  `json:"subject_id,omitempty"`
	Party     string        `json:"party_id,omitempty"`
	// Disclosure outcome counts. Values never enter the trail.
	FieldsDisclosed int `json:"fields_disclosed,omitempty"`
	FieldsWithheld  int `json:"fields_withheld,omitempty"`
	RecordVersion   int64 `json:"record_version,omitempty"`
	// Reason carries the domain error code on rejections.
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
}

// Normalize stamps derived fields so emitters stay terse.
func (e Event) Normalize() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	return e
}

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
