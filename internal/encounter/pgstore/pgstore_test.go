package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
	"github.com/linnemanlabs/helpdesk/internal/encounter/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("HELPDESK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("HELPDESK_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func seed(owner string, status encounter.Status) *encounter.Encounter {
	return &encounter.Encounter{
		ID:      ulid.Make().String(),
		OwnerID: owner,
		Patient: encounter.Patient{Name: "Ada", Symptoms: "chest pain"},
		Transcript: []encounter.TranscriptEntry{
			{Seq: 1, Kind: encounter.KindQuestion, Text: "Where does it hurt?"},
		},
		Vitals:    encounter.Vitals{Temp: 37.5, BP: "120/80", HR: 90, O2: 98, Resp: 16},
		Triage:    map[string]any{"ESI": 2.0, "severity": 2.0, "ai_summary": "stable"},
		Severity:  2,
		Status:    status,
		IsWaiting: true,
		CreatedAt: time.Now().Truncate(time.Microsecond).UTC(),
	}
}

func TestCreateAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := seed("nurse-pg-1", encounter.StatusPending)
	if err := s.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := s.Get(ctx, e.ID, "nurse-pg-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}
	if got.ID != e.ID {
		t.Errorf("ID = %q, want %q", got.ID, e.ID)
	}
	if got.Patient.Name != "Ada" {
		t.Errorf("Patient.Name = %q, want %q", got.Patient.Name, "Ada")
	}
	if got.Severity != 2 {
		t.Errorf("Severity = %d, want 2", got.Severity)
	}
	if len(got.Transcript) != 1 || got.Transcript[0].Text != "Where does it hurt?" {
		t.Errorf("Transcript mismatch: %+v", got.Transcript)
	}
	if !got.CreatedAt.Equal(e.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, e.CreatedAt)
	}

	// Ownership predicate folds foreign into missing.
	if _, ok, err := s.Get(ctx, e.ID, "nurse-pg-other"); err != nil || ok {
		t.Errorf("foreign Get = (ok=%v, err=%v), want ok=false", ok, err)
	}
}

func TestConfirmClaimAndLoss(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := seed("", encounter.StatusUnassigned)
	if err := s.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Now().Truncate(time.Microsecond).UTC()
	got, ok, err := s.Confirm(ctx, e.ID, "nurse-pg-a", "bay 1", at)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !ok {
		t.Fatal("expected claim to succeed")
	}
	if got.OwnerID != "nurse-pg-a" || got.Status != encounter.StatusConfirmed {
		t.Errorf("claim result = owner %q status %q", got.OwnerID, got.Status)
	}
	if got.NurseNotes != "bay 1" {
		t.Errorf("NurseNotes = %q, want %q", got.NurseNotes, "bay 1")
	}

	// The racing second claimer loses.
	if _, ok, err := s.Confirm(ctx, e.ID, "nurse-pg-b", "", time.Now().UTC()); err != nil || ok {
		t.Errorf("second claim = (ok=%v, err=%v), want ok=false", ok, err)
	}
}

func TestAttendOwnerOnly(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	e := seed("nurse-pg-c", encounter.StatusPending)
	if err := s.Create(ctx, e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, ok, err := s.Confirm(ctx, e.ID, "nurse-pg-c", "", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("Confirm: ok=%v err=%v", ok, err)
	}

	if _, ok, err := s.Attend(ctx, e.ID, "nurse-pg-d", time.Now().UTC()); err != nil || ok {
		t.Errorf("foreign Attend = (ok=%v, err=%v), want ok=false", ok, err)
	}

	got, ok, err := s.Attend(ctx, e.ID, "nurse-pg-c", time.Now().Truncate(time.Microsecond).UTC())
	if err != nil {
		t.Fatalf("Attend: %v", err)
	}
	if !ok {
		t.Fatal("owner Attend failed")
	}
	if got.Status != encounter.StatusCompleted || got.IsWaiting {
		t.Errorf("attend result = status %q waiting %v", got.Status, got.IsWaiting)
	}
}

func TestLists(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	owner := "nurse-pg-" + ulid.Make().String()
	mine := seed(owner, encounter.StatusPending)
	if err := s.Create(ctx, mine); err != nil {
		t.Fatalf("Create: %v", err)
	}
	anon := seed("", encounter.StatusUnassigned)
	if err := s.Create(ctx, anon); err != nil {
		t.Fatalf("Create: %v", err)
	}

	waiting, err := s.ListWaiting(ctx, owner)
	if err != nil {
		t.Fatalf("ListWaiting: %v", err)
	}
	if len(waiting) != 1 || waiting[0].ID != mine.ID {
		t.Errorf("waiting = %d entries, want only the owned one", len(waiting))
	}

	unassigned, err := s.ListUnassigned(ctx)
	if err != nil {
		t.Fatalf("ListUnassigned: %v", err)
	}
	found := false
	for _, e := range unassigned {
		if e.ID == anon.ID {
			found = true
		}
		if e.OwnerID != "" {
			t.Errorf("unassigned list contains owned encounter %s", e.ID)
		}
	}
	if !found {
		t.Error("unassigned list missing the anonymous encounter")
	}
}
