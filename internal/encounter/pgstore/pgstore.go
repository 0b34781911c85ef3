// Package pgstore provides a PostgreSQL implementation of encounter.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

var tracer = otel.Tracer("github.com/linnemanlabs/helpdesk/internal/encounter/pgstore")

//go:embed schema.sql
var schema string

// Store persists encounters in PostgreSQL. Confirm and Attend are single
// conditional UPDATEs so that concurrent claims on the same encounter resolve
// to one winner without a separate locking layer.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const encounterColumns = `id, owner_id, patient, transcript, vitals, triage,
	severity, status, is_waiting, nurse_notes, created_at, submitted_at, attended_at`

// Create inserts a new encounter in one atomic write.
func (s *Store) Create(ctx context.Context, e *encounter.Encounter) error {
	ctx, span := tracer.Start(ctx, "pgstore.Create", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	patientJSON, err := json.Marshal(e.Patient)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	transcriptJSON, err := json.Marshal(e.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	vitalsJSON, err := json.Marshal(e.Vitals)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}
	triageJSON, err := json.Marshal(e.Triage)
	if err != nil {
		return fmt.Errorf("marshal triage: %w", err)
	}

	query := `INSERT INTO encounters (
		id, owner_id, patient, transcript, vitals, triage,
		severity, status, is_waiting, nurse_notes, created_at, submitted_at, attended_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err = s.pool.Exec(ctx, query,
		e.ID, nullableOwner(e.OwnerID), patientJSON, transcriptJSON, vitalsJSON, triageJSON,
		e.Severity, string(e.Status), e.IsWaiting, e.NurseNotes, e.CreatedAt, e.SubmittedAt, e.AttendedAt,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert encounter: %w", err)
	}
	return nil
}

// Get fetches an encounter owned by ownerID. The ownership predicate lives
// in the query so a foreign encounter is indistinguishable from a missing one.
func (s *Store) Get(ctx context.Context, id, ownerID string) (*encounter.Encounter, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + encounterColumns + ` FROM encounters WHERE id = $1 AND owner_id = $2`
	e, err := scanEncounterRow(s.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if e == nil {
		return nil, false, nil
	}
	return e, true, nil
}

// Confirm transitions pending|unassigned -> confirmed as one conditional
// UPDATE keyed on (id, owner IS NULL OR owner = ownerID). Zero rows means the
// encounter is absent, foreign, or past confirmation.
func (s *Store) Confirm(ctx context.Context, id, ownerID, notes string, at time.Time) (*encounter.Encounter, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Confirm", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	query := `UPDATE encounters
		SET status = 'confirmed',
		    owner_id = $2,
		    submitted_at = $3,
		    nurse_notes = CASE WHEN $4 <> '' THEN $4 ELSE nurse_notes END
		WHERE id = $1
		  AND (owner_id IS NULL OR owner_id = $2)
		  AND status IN ('pending', 'unassigned')
		RETURNING ` + encounterColumns

	e, err := scanEncounterRow(s.pool.QueryRow(ctx, query, id, ownerID, at, notes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if e == nil {
		return nil, false, nil
	}
	return e, true, nil
}

// Attend transitions confirmed -> completed for the exact owner only.
func (s *Store) Attend(ctx context.Context, id, ownerID string, at time.Time) (*encounter.Encounter, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Attend", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	query := `UPDATE encounters
		SET status = 'completed',
		    attended_at = $3,
		    is_waiting = FALSE
		WHERE id = $1
		  AND owner_id = $2
		  AND status = 'confirmed'
		RETURNING ` + encounterColumns

	e, err := scanEncounterRow(s.pool.QueryRow(ctx, query, id, ownerID, at))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if e == nil {
		return nil, false, nil
	}
	return e, true, nil
}

// ListWaiting returns ownerID's waiting encounters, creation time ascending.
func (s *Store) ListWaiting(ctx context.Context, ownerID string) ([]*encounter.Encounter, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListWaiting", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + encounterColumns + `
		FROM encounters WHERE owner_id = $1 AND is_waiting ORDER BY created_at`
	es, err := s.queryEncounters(ctx, query, ownerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return es, nil
}

// ListUnassigned returns the anonymous waiting queue, creation time ascending.
func (s *Store) ListUnassigned(ctx context.Context) ([]*encounter.Encounter, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListUnassigned", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + encounterColumns + `
		FROM encounters WHERE owner_id IS NULL AND is_waiting ORDER BY created_at`
	es, err := s.queryEncounters(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return es, nil
}

func (s *Store) queryEncounters(ctx context.Context, query string, args ...any) ([]*encounter.Encounter, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query encounters: %w", err)
	}
	defer rows.Close()

	var out []*encounter.Encounter
	for rows.Next() {
		e, err := scanEncounter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encounters: %w", err)
	}
	return out, nil
}

// scanEncounterRow scans a single row, returning (nil, nil) when none matched.
func scanEncounterRow(row pgx.Row) (*encounter.Encounter, error) {
	e, err := scanEncounter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func scanEncounter(row pgx.Row) (*encounter.Encounter, error) {
	var (
		e              encounter.Encounter
		ownerID        *string
		patientJSON    []byte
		transcriptJSON []byte
		vitalsJSON     []byte
		triageJSON     []byte
		status         string
	)

	err := row.Scan(
		&e.ID, &ownerID, &patientJSON, &transcriptJSON, &vitalsJSON, &triageJSON,
		&e.Severity, &status, &e.IsWaiting, &e.NurseNotes, &e.CreatedAt, &e.SubmittedAt, &e.AttendedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	if ownerID != nil {
		e.OwnerID = *ownerID
	}
	e.Status = encounter.Status(status)

	if err := json.Unmarshal(patientJSON, &e.Patient); err != nil {
		return nil, fmt.Errorf("unmarshal patient: %w", err)
	}
	if err := json.Unmarshal(transcriptJSON, &e.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	if err := json.Unmarshal(vitalsJSON, &e.Vitals); err != nil {
		return nil, fmt.Errorf("unmarshal vitals: %w", err)
	}
	if err := json.Unmarshal(triageJSON, &e.Triage); err != nil {
		return nil, fmt.Errorf("unmarshal triage: %w", err)
	}

	return &e, nil
}

// nullableOwner maps the domain's empty-string "unassigned" to SQL NULL so
// the claim predicate (owner_id IS NULL) works.
func nullableOwner(ownerID string) *string {
	if ownerID == "" {
		return nil
	}
	return &ownerID
}
