// Package records keeps append-only clinical logs that sit outside the
// encounter lifecycle: standalone vitals readings and free-form interaction
// notes. Entries are written once and never updated.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

// VitalsLog is a standalone vitals reading taken outside an encounter.
type VitalsLog struct {
	ID          string           `json:"id"`
	PatientName string           `json:"patient_name"`
	Vitals      encounter.Vitals `json:"vitals"`
	RecordedBy  string           `json:"recorded_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// InteractionLog is a free-form note about a patient interaction.
type InteractionLog struct {
	ID          string    `json:"id"`
	EncounterID string    `json:"encounter_id,omitempty"`
	Note        string    `json:"note"`
	RecordedBy  string    `json:"recorded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists log entries.
type Store interface {
	InsertVitals(ctx context.Context, v *VitalsLog) error
	InsertInteraction(ctx context.Context, l *InteractionLog) error
}

// Service validates and stamps log entries before insert.
type Service struct {
	store  Store
	logger log.Logger
}

// NewService creates a records service. logger may be nil.
func NewService(store Store, logger log.Logger) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{store: store, logger: logger}
}

// RecordVitals stores a vitals reading and returns it with ID and timestamp set.
func (s *Service) RecordVitals(ctx context.Context, v *VitalsLog) (*VitalsLog, error) {
	if v == nil || v.PatientName == "" {
		return nil, fmt.Errorf("%w: patient name is required", encounter.ErrBadRequest)
	}

	entry := *v
	entry.ID = ulid.Make().String()
	entry.CreatedAt = time.Now().UTC()

	if err := s.store.InsertVitals(ctx, &entry); err != nil {
		return nil, fmt.Errorf("insert vitals log: %w", err)
	}

	s.logger.Info(ctx, "vitals recorded", "log_id", entry.ID)
	return &entry, nil
}

// RecordInteraction stores an interaction note and returns it with ID and
// timestamp set.
func (s *Service) RecordInteraction(ctx context.Context, l *InteractionLog) (*InteractionLog, error) {
	if l == nil || l.Note == "" {
		return nil, fmt.Errorf("%w: note is required", encounter.ErrBadRequest)
	}

	entry := *l
	entry.ID = ulid.Make().String()
	entry.CreatedAt = time.Now().UTC()

	if err := s.store.InsertInteraction(ctx, &entry); err != nil {
		return nil, fmt.Errorf("insert interaction log: %w", err)
	}

	s.logger.Info(ctx, "interaction recorded", "log_id", entry.ID)
	return &entry, nil
}
