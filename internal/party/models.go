// Package party manages requesting parties: the external callers authorized
// to submit disclosure masks. A party authenticates with its client secret
// and receives a short-lived bearer token.
package party

import (
	"time"

	id "veil/pkg/domain"
)

// Party is one registered requesting party.
type Party struct {
	ID         id.PartyID
	Name       string
	SecretHash string
	Active     bool
	CreatedAt  time.Time
}
