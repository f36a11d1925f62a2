package party

import (
	"context"
	"strings"
	"sync"

	id "veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

// InMemoryStore keeps parties in memory. Party registration is rare and the
// set is small; persistence can follow the record store's postgres pattern
// when a deployment needs it.
type InMemoryStore struct {
	mu      sync.RWMutex
	parties map[id.PartyID]*Party
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{parties: make(map[id.PartyID]*Party)}
}

// Create adds a party, enforcing case-insensitive name uniqueness.
func (s *InMemoryStore) Create(_ context.Context, p *Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.parties {
		if strings.EqualFold(existing.Name, p.Name) {
			return sentinel.ErrConflict
		}
	}
	cp := *p
	s.parties[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, partyID id.PartyID) (*Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parties[partyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}
