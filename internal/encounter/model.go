package encounter

import "time"

// Status tracks where an encounter is in its lifecycle.
type Status string

const (
	// StatusUnassigned means created without an owning nurse (anonymous intake).
	StatusUnassigned Status = "unassigned"

	// StatusPending means created by or assigned to a nurse, not yet confirmed.
	StatusPending Status = "pending"

	// StatusConfirmed means a nurse has taken ownership and confirmed the record.
	StatusConfirmed Status = "confirmed"

	// StatusCompleted means the owning nurse has attended the patient. Terminal.
	StatusCompleted Status = "completed"
)

// Transcript entry kinds.
const (
	KindQuestion = "question"
	KindAnswer   = "answer"
)

// TranscriptEntry is one exchange captured during intake. Seq preserves
// display order; numbers need not stay contiguous after edits.
type TranscriptEntry struct {
	Seq  int    `json:"id"`
	Kind string `json:"type"`
	Text string `json:"text"`
}

// Patient is the demographic and symptom snapshot taken at intake. The
// pipeline stores it verbatim and never interprets the fields.
type Patient struct {
	Name      string `json:"name"`
	Symptoms  string `json:"symptoms,omitempty"`
	Duration  string `json:"duration,omitempty"`
	PainLevel string `json:"painLevel,omitempty"`
	History   string `json:"history,omitempty"`
}

// Vitals is the structured vitals snapshot taken at intake.
type Vitals struct {
	Temp float64 `json:"temp,omitempty"`
	BP   string  `json:"bp,omitempty"`
	HR   int     `json:"hr,omitempty"`
	O2   int     `json:"o2,omitempty"`
	Resp int     `json:"resp,omitempty"`
}

// Encounter is one patient intake record tracked through its lifecycle.
//
// Severity is a denormalized copy of the triage severity kept for queue
// ordering; it is written together with Triage in a single path and the two
// never diverge. An empty OwnerID means the encounter is unassigned.
type Encounter struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"nurse_id,omitempty"`
	Patient     Patient           `json:"patient"`
	Transcript  []TranscriptEntry `json:"transcript"`
	Vitals      Vitals            `json:"vitals"`
	Triage      map[string]any    `json:"triage"`
	Severity    int               `json:"severity"`
	Status      Status            `json:"status"`
	IsWaiting   bool              `json:"isWaiting"`
	NurseNotes  string            `json:"nurseNotes"`
	CreatedAt   time.Time         `json:"createdAt"`
	SubmittedAt *time.Time        `json:"submittedAt,omitempty"`
	AttendedAt  *time.Time        `json:"attendedAt,omitempty"`
}

// Clone returns a deep copy safe to hand across goroutine or store boundaries.
func (e *Encounter) Clone() *Encounter {
	cp := *e
	if e.Transcript != nil {
		cp.Transcript = make([]TranscriptEntry, len(e.Transcript))
		copy(cp.Transcript, e.Transcript)
	}
	if e.Triage != nil {
		cp.Triage = make(map[string]any, len(e.Triage))
		for k, v := range e.Triage {
			cp.Triage[k] = v
		}
	}
	if e.SubmittedAt != nil {
		t := *e.SubmittedAt
		cp.SubmittedAt = &t
	}
	if e.AttendedAt != nil {
		t := *e.AttendedAt
		cp.AttendedAt = &t
	}
	return &cp
}
