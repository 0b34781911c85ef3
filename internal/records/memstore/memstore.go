// Package memstore provides an in-memory records.Store for development and
// tests.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/helpdesk/internal/records"
)

// Store keeps log entries in memory.
type Store struct {
	mu           sync.Mutex
	vitals       []*records.VitalsLog
	interactions []*records.InteractionLog
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// InsertVitals appends a vitals log entry.
func (s *Store) InsertVitals(_ context.Context, v *records.VitalsLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.vitals = append(s.vitals, &cp)
	return nil
}

// InsertInteraction appends an interaction log entry.
func (s *Store) InsertInteraction(_ context.Context, l *records.InteractionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.interactions = append(s.interactions, &cp)
	return nil
}

// VitalsCount reports the number of stored vitals entries.
func (s *Store) VitalsCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.vitals)
}

// InteractionCount reports the number of stored interaction entries.
func (s *Store) InteractionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.interactions)
}
