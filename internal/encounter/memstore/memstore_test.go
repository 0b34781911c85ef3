package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

func seed(id, owner string, status encounter.Status, created time.Time) *encounter.Encounter {
	return &encounter.Encounter{
		ID:        id,
		OwnerID:   owner,
		Patient:   encounter.Patient{Name: "Ada"},
		Status:    status,
		IsWaiting: true,
		CreatedAt: created,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.Create(ctx, seed("e-1", "nurse-1", encounter.StatusPending, now)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := s.Get(ctx, "e-1", "nurse-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected encounter to be found")
	}
	if got.ID != "e-1" {
		t.Errorf("ID = %q, want %q", got.ID, "e-1")
	}

	// Ownership predicate: a foreign caller sees nothing.
	_, ok, err = s.Get(ctx, "e-1", "nurse-2")
	if err != nil {
		t.Fatalf("Get foreign: %v", err)
	}
	if ok {
		t.Error("expected ok=false for foreign owner")
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	e := seed("e-cp", "nurse-1", encounter.StatusPending, time.Now().UTC())
	e.Triage = map[string]any{"ESI": 2}
	_ = s.Create(ctx, e)

	got, _, _ := s.Get(ctx, "e-cp", "nurse-1")
	got.Triage["ESI"] = 5
	got.NurseNotes = "mutated"

	again, _, _ := s.Get(ctx, "e-cp", "nurse-1")
	if again.Triage["ESI"] != 2 {
		t.Error("mutating a returned encounter leaked into the store")
	}
	if again.NurseNotes != "" {
		t.Error("mutating a returned encounter leaked into the store")
	}
}

func TestStore_ConfirmClaimsUnassigned(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.Create(ctx, seed("e-claim", "", encounter.StatusUnassigned, time.Now().UTC()))

	at := time.Now().UTC()
	got, ok, err := s.Confirm(ctx, "e-claim", "nurse-1", "bay 2", at)
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !ok {
		t.Fatal("expected claim to succeed")
	}
	if got.OwnerID != "nurse-1" {
		t.Errorf("OwnerID = %q, want %q", got.OwnerID, "nurse-1")
	}
	if got.Status != encounter.StatusConfirmed {
		t.Errorf("Status = %q, want %q", got.Status, encounter.StatusConfirmed)
	}
	if got.NurseNotes != "bay 2" {
		t.Errorf("NurseNotes = %q, want %q", got.NurseNotes, "bay 2")
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(at) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, at)
	}
}

func TestStore_ConfirmRejectsForeignOwner(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.Create(ctx, seed("e-own", "nurse-1", encounter.StatusPending, time.Now().UTC()))

	_, ok, err := s.Confirm(ctx, "e-own", "nurse-2", "", time.Now().UTC())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if ok {
		t.Error("expected foreign confirm to fail")
	}
}

func TestStore_ConfirmRejectsWrongStatus(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	for _, status := range []encounter.Status{encounter.StatusConfirmed, encounter.StatusCompleted} {
		id := "e-" + string(status)
		_ = s.Create(ctx, seed(id, "nurse-1", status, time.Now().UTC()))
		_, ok, err := s.Confirm(ctx, id, "nurse-1", "", time.Now().UTC())
		if err != nil {
			t.Fatalf("Confirm %s: %v", status, err)
		}
		if ok {
			t.Errorf("Confirm succeeded on %s, want rejection", status)
		}
	}
}

func TestStore_ConfirmEmptyNotesPreserved(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	e := seed("e-notes", "nurse-1", encounter.StatusPending, time.Now().UTC())
	e.NurseNotes = "original"
	_ = s.Create(ctx, e)

	got, ok, err := s.Confirm(ctx, "e-notes", "nurse-1", "", time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("Confirm: ok=%v err=%v", ok, err)
	}
	if got.NurseNotes != "original" {
		t.Errorf("NurseNotes = %q, want original preserved", got.NurseNotes)
	}
}

func TestStore_AttendLifecycle(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.Create(ctx, seed("e-att", "", encounter.StatusUnassigned, time.Now().UTC()))

	// Attend before confirm fails.
	_, ok, err := s.Attend(ctx, "e-att", "nurse-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("Attend: %v", err)
	}
	if ok {
		t.Error("Attend succeeded before confirm")
	}

	if _, ok, _ := s.Confirm(ctx, "e-att", "nurse-1", "", time.Now().UTC()); !ok {
		t.Fatal("Confirm failed")
	}

	// Foreign attend fails even after confirm.
	if _, ok, _ := s.Attend(ctx, "e-att", "nurse-2", time.Now().UTC()); ok {
		t.Error("foreign Attend succeeded")
	}

	at := time.Now().UTC()
	got, ok, err := s.Attend(ctx, "e-att", "nurse-1", at)
	if err != nil {
		t.Fatalf("Attend: %v", err)
	}
	if !ok {
		t.Fatal("owner Attend failed")
	}
	if got.Status != encounter.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, encounter.StatusCompleted)
	}
	if got.IsWaiting {
		t.Error("completed encounter still waiting")
	}
	if got.AttendedAt == nil || !got.AttendedAt.Equal(at) {
		t.Errorf("AttendedAt = %v, want %v", got.AttendedAt, at)
	}

	// Terminal: a second attend fails.
	if _, ok, _ := s.Attend(ctx, "e-att", "nurse-1", time.Now().UTC()); ok {
		t.Error("Attend succeeded twice")
	}
}

func TestStore_Lists(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	_ = s.Create(ctx, seed("anon-late", "", encounter.StatusUnassigned, base.Add(2*time.Minute)))
	_ = s.Create(ctx, seed("anon-early", "", encounter.StatusUnassigned, base))
	_ = s.Create(ctx, seed("mine", "nurse-1", encounter.StatusPending, base.Add(time.Minute)))
	done := seed("done", "nurse-1", encounter.StatusCompleted, base)
	done.IsWaiting = false
	_ = s.Create(ctx, done)

	unassigned, err := s.ListUnassigned(ctx)
	if err != nil {
		t.Fatalf("ListUnassigned: %v", err)
	}
	if len(unassigned) != 2 {
		t.Fatalf("unassigned len = %d, want 2", len(unassigned))
	}
	if unassigned[0].ID != "anon-early" || unassigned[1].ID != "anon-late" {
		t.Errorf("unassigned order = [%s %s], want creation ascending", unassigned[0].ID, unassigned[1].ID)
	}

	waiting, err := s.ListWaiting(ctx, "nurse-1")
	if err != nil {
		t.Fatalf("ListWaiting: %v", err)
	}
	if len(waiting) != 1 || waiting[0].ID != "mine" {
		t.Errorf("waiting = %v, want only the waiting owned encounter", waiting)
	}
}

func TestStore_ConcurrentConfirmSingleWinner(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.Create(ctx, seed("e-race", "", encounter.StatusUnassigned, time.Now().UTC()))

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	wg.Add(n)
	for i := range n {
		nurse := fmt.Sprintf("nurse-%d", i)
		go func() {
			defer wg.Done()
			if _, ok, _ := s.Confirm(ctx, "e-race", nurse, "", time.Now().UTC()); ok {
				mu.Lock()
				winners = append(winners, nurse)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(winners))
	}

	got, ok, _ := s.Get(ctx, "e-race", winners[0])
	if !ok {
		t.Fatal("winner cannot read its claimed encounter")
	}
	if got.Status != encounter.StatusConfirmed {
		t.Errorf("Status = %q, want %q", got.Status, encounter.StatusConfirmed)
	}
}
