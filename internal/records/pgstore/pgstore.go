// Package pgstore provides a PostgreSQL implementation of records.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/helpdesk/internal/records"
)

var tracer = otel.Tracer("github.com/linnemanlabs/helpdesk/internal/records/pgstore")

//go:embed schema.sql
var schema string

// Store persists clinical log entries in PostgreSQL.
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

// InsertVitals appends a vitals log entry.
func (s *Store) InsertVitals(ctx context.Context, v *records.VitalsLog) error {
	ctx, span := tracer.Start(ctx, "pgstore.InsertVitals", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	vitalsJSON, err := json.Marshal(v.Vitals)
	if err != nil {
		return fmt.Errorf("marshal vitals: %w", err)
	}

	query := `INSERT INTO vitals_logs (id, patient_name, vitals, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5)`
	if _, err := s.pool.Exec(ctx, query, v.ID, v.PatientName, vitalsJSON, v.RecordedBy, v.CreatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert vitals log: %w", err)
	}
	return nil
}

// InsertInteraction appends an interaction log entry.
func (s *Store) InsertInteraction(ctx context.Context, l *records.InteractionLog) error {
	ctx, span := tracer.Start(ctx, "pgstore.InsertInteraction", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO interaction_logs (id, encounter_id, note, recorded_by, created_at)
		VALUES ($1,$2,$3,$4,$5)`
	var encounterID *string
	if l.EncounterID != "" {
		encounterID = &l.EncounterID
	}
	if _, err := s.pool.Exec(ctx, query, l.ID, encounterID, l.Note, l.RecordedBy, l.CreatedAt); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert interaction log: %w", err)
	}
	return nil
}
