package encounter

import (
	"context"
	"time"
)

// Store is the persistence interface for encounters.
//
// Confirm and Attend are single conditional updates: the ownership and status
// predicates are evaluated atomically with the write, so two nurses racing to
// claim the same unassigned encounter resolve to exactly one winner. A false
// second return value means no row matched (absent, wrong owner, or wrong
// state) and is reported to callers as ErrNotFound.
type Store interface {
	// Create persists a new encounter in one atomic write.
	Create(ctx context.Context, e *Encounter) error

	// Get fetches an encounter owned by ownerID.
	Get(ctx context.Context, id, ownerID string) (*Encounter, bool, error)

	// Confirm transitions pending|unassigned -> confirmed, claiming ownership
	// when the encounter is unassigned. An empty notes value leaves the
	// existing nurse notes unchanged.
	Confirm(ctx context.Context, id, ownerID, notes string, at time.Time) (*Encounter, bool, error)

	// Attend transitions confirmed -> completed for the owning nurse only.
	Attend(ctx context.Context, id, ownerID string, at time.Time) (*Encounter, bool, error)

	// ListWaiting returns ownerID's waiting encounters, creation time ascending.
	ListWaiting(ctx context.Context, ownerID string) ([]*Encounter, error)

	// ListUnassigned returns the anonymous waiting queue, creation time ascending.
	ListUnassigned(ctx context.Context) ([]*Encounter, error)
}
