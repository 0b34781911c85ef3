// Package memstore provides an in-memory implementation of encounter.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

// Store holds encounters in memory. Suitable for dev/testing. The mutex gives
// Confirm and Attend the same check-and-write atomicity the SQL store gets
// from conditional updates.
type Store struct {
	mu         sync.RWMutex
	encounters map[string]*encounter.Encounter
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{encounters: make(map[string]*encounter.Encounter)}
}

// Create stores a copy of the encounter.
func (s *Store) Create(_ context.Context, e *encounter.Encounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encounters[e.ID] = e.Clone()
	return nil
}

// Get retrieves an encounter owned by ownerID. Returns a copy.
func (s *Store) Get(_ context.Context, id, ownerID string) (*encounter.Encounter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.encounters[id]
	if !ok || e.OwnerID != ownerID {
		return nil, false, nil
	}
	return e.Clone(), true, nil
}

// Confirm transitions pending|unassigned -> confirmed under the claim rule:
// the encounter must be unowned or already owned by ownerID.
func (s *Store) Confirm(_ context.Context, id, ownerID, notes string, at time.Time) (*encounter.Encounter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.encounters[id]
	if !ok {
		return nil, false, nil
	}
	if e.OwnerID != "" && e.OwnerID != ownerID {
		return nil, false, nil
	}
	if e.Status != encounter.StatusPending && e.Status != encounter.StatusUnassigned {
		return nil, false, nil
	}

	e.OwnerID = ownerID
	e.Status = encounter.StatusConfirmed
	e.SubmittedAt = &at
	if notes != "" {
		e.NurseNotes = notes
	}
	return e.Clone(), true, nil
}

// Attend transitions confirmed -> completed for the exact owner only.
func (s *Store) Attend(_ context.Context, id, ownerID string, at time.Time) (*encounter.Encounter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.encounters[id]
	if !ok || e.OwnerID != ownerID || e.Status != encounter.StatusConfirmed {
		return nil, false, nil
	}

	e.Status = encounter.StatusCompleted
	e.AttendedAt = &at
	e.IsWaiting = false
	return e.Clone(), true, nil
}

// ListWaiting returns ownerID's waiting encounters, creation time ascending.
func (s *Store) ListWaiting(_ context.Context, ownerID string) ([]*encounter.Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*encounter.Encounter
	for _, e := range s.encounters {
		if e.OwnerID == ownerID && e.IsWaiting {
			out = append(out, e.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// ListUnassigned returns the anonymous waiting queue, creation time ascending.
func (s *Store) ListUnassigned(_ context.Context) ([]*encounter.Encounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*encounter.Encounter
	for _, e := range s.encounters {
		if e.OwnerID == "" && e.IsWaiting {
			out = append(out, e.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

func sortByCreated(es []*encounter.Encounter) {
	sort.Slice(es, func(i, j int) bool {
		if es[i].CreatedAt.Equal(es[j].CreatedAt) {
			return es[i].ID < es[j].ID
		}
		return es[i].CreatedAt.Before(es[j].CreatedAt)
	})
}
