// Package store provides the subject snapshot stores: in-memory for
// development and tests, PostgreSQL for production, plus a Redis read-through
// cache decorator.
package store

import (
	"context"
	"sync"
	"time"

	"veil/internal/disclosure"
	id "veil/pkg/domain"
	"veil/pkg/platform/sentinel"
)

// Memory keeps snapshots in a map guarded by a RWMutex. Every Get hands out a
// deep copy, so an in-flight filter call keeps one consistent snapshot even
// while a Replace swaps the stored one.
type Memory struct {
	mu      sync.RWMutex
	records map[id.SubjectID]*disclosure.Record
}

func NewMemory() *Memory {
	return &Memory{records: make(map[id.SubjectID]*disclosure.Record)}
}

func (s *Memory) Replace(_ context.Context, subject id.SubjectID, values map[string][]byte) (*disclosure.Record, error) {
	record := &disclosure.Record{
		Subject:    subject,
		Version:    1,
		Values:     values,
		UploadedAt: time.Now().UTC(),
	}
	// Copy before taking the lock; the caller keeps ownership of its map.
	record = record.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.records[subject]; ok {
		record.Version = prev.Version + 1
	}
	s.records[subject] = record
	return record.Clone(), nil
}

func (s *Memory) Get(_ context.Context, subject id.SubjectID) (*disclosure.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[subject]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return record.Clone(), nil
}

func (s *Memory) Delete(_ context.Context, subject id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[subject]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.records, subject)
	return nil
}
