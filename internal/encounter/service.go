package encounter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// NotifySeverity is the minimum severity that triggers a notification.
const NotifySeverity = 3

// Classifier is the external severity-scoring capability. Implementations
// must always return a usable triage map; degraded reports that a fallback
// was substituted because the scorer was unreachable.
type Classifier interface {
	Classify(ctx context.Context, patient *Patient, vitals *Vitals, transcript []TranscriptEntry) (triage map[string]any, degraded bool)
}

// Notifier pushes a newly created high-acuity encounter to an external
// channel. Failures are logged, never surfaced to the intake caller.
type Notifier interface {
	Send(ctx context.Context, e *Encounter) error
}

// TriageRequest is the payload for a triage submission. Transcript is raw
// because callers send either a structured list or a loosely-quoted string.
type TriageRequest struct {
	Patient    *Patient        `json:"patient"`
	Vitals     *Vitals         `json:"vitals"`
	Transcript json.RawMessage `json:"transcript,omitempty"`
	NurseNotes string          `json:"nurseNotes,omitempty"`
}

// StartRequest is the payload for manual staff intake. Vitals arrive as flat
// fields from the intake form; triage and severity are trusted as supplied.
type StartRequest struct {
	Patient          *Patient        `json:"patient"`
	Temperature      float64         `json:"temperature,omitempty"`
	BloodPressure    string          `json:"blood_pressure,omitempty"`
	HeartRate        int             `json:"heart_rate,omitempty"`
	OxygenSaturation int             `json:"oxygen_saturation,omitempty"`
	Resp             int             `json:"resp,omitempty"`
	Transcript       json.RawMessage `json:"transcript,omitempty"`
	Triage           map[string]any  `json:"triage,omitempty"`
	Severity         int             `json:"severity,omitempty"`
	NurseNotes       string          `json:"nurseNotes,omitempty"`
}

// Service is the business boundary for encounter operations. Caller identity
// is an explicit parameter on every operation; an empty callerID means the
// caller is anonymous.
type Service struct {
	store      Store
	classifier Classifier
	notifier   Notifier
	logger     log.Logger
	metrics    *Metrics
}

// NewService creates a new encounter service. notifier and metrics may be nil.
func NewService(store Store, classifier Classifier, logger log.Logger, metrics *Metrics, notifier Notifier) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:      store,
		classifier: classifier,
		notifier:   notifier,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunTriage handles a triage submission: it scores the patient through the
// classifier gateway and persists the resulting encounter. Anonymous
// submissions produce an unassigned encounter; identified ones are pending
// and owned by the caller.
func (s *Service) RunTriage(ctx context.Context, callerID string, req *TriageRequest) (*Encounter, error) {
	if req == nil || req.Patient == nil || req.Vitals == nil {
		return nil, fmt.Errorf("%w: patient and vitals required", ErrBadRequest)
	}

	transcript := ParseTranscript(req.Transcript)

	triage, degraded := s.classifier.Classify(ctx, req.Patient, req.Vitals, transcript)
	sev := triageSeverity(triage)

	status := StatusUnassigned
	if callerID != "" {
		status = StatusPending
	}

	e := &Encounter{
		ID:         ulid.Make().String(),
		OwnerID:    callerID,
		Patient:    *req.Patient,
		Transcript: transcript,
		Vitals:     *req.Vitals,
		Triage:     withSeverity(triage, sev),
		Severity:   sev,
		Status:     status,
		IsWaiting:  true,
		NurseNotes: req.NurseNotes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	s.metrics.incIntake("triage", degraded)
	s.logger.Info(ctx, "encounter created",
		"encounter_id", e.ID,
		"status", string(e.Status),
		"severity", e.Severity,
		"triage_degraded", degraded,
	)
	s.notify(ctx, e)

	return e, nil
}

// Start handles manual staff intake. The classifier is not consulted: the
// caller's triage and severity are trusted, defaulting to the lowest acuity.
func (s *Service) Start(ctx context.Context, callerID string, req *StartRequest) (*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if req == nil || req.Patient == nil {
		return nil, fmt.Errorf("%w: patient required", ErrBadRequest)
	}

	sev := req.Severity
	if sev <= 0 {
		sev = triageSeverity(req.Triage)
	}

	e := &Encounter{
		ID:         ulid.Make().String(),
		OwnerID:    callerID,
		Patient:    *req.Patient,
		Transcript: ParseTranscript(req.Transcript),
		Vitals: Vitals{
			Temp: req.Temperature,
			BP:   req.BloodPressure,
			HR:   req.HeartRate,
			O2:   req.OxygenSaturation,
			Resp: req.Resp,
		},
		Triage:     withSeverity(req.Triage, sev),
		Severity:   sev,
		Status:     StatusPending,
		IsWaiting:  true,
		NurseNotes: req.NurseNotes,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}

	s.metrics.incIntake("manual", false)
	s.logger.Info(ctx, "encounter created",
		"encounter_id", e.ID,
		"status", string(e.Status),
		"severity", e.Severity,
	)
	s.notify(ctx, e)

	return e, nil
}

// Confirm transitions an encounter to confirmed, claiming ownership when it
// is unassigned. Only one concurrent confirm can win; every other caller
// observes ErrNotFound.
func (s *Service) Confirm(ctx context.Context, callerID, id, notes string) (*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := ulid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid encounter id", ErrBadRequest)
	}

	e, ok, err := s.store.Confirm(ctx, id, callerID, notes, time.Now().UTC())
	if err != nil {
		s.metrics.incTransition("confirm", "error")
		return nil, err
	}
	if !ok {
		s.metrics.incTransition("confirm", "not_found")
		return nil, ErrNotFound
	}

	s.metrics.incTransition("confirm", "ok")
	s.logger.Info(ctx, "encounter confirmed", "encounter_id", id)
	return e, nil
}

// Attend transitions a confirmed encounter to completed. Stricter than
// Confirm: only the current owner qualifies, there is no claiming.
func (s *Service) Attend(ctx context.Context, callerID, id string) (*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := ulid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid encounter id", ErrBadRequest)
	}

	e, ok, err := s.store.Attend(ctx, id, callerID, time.Now().UTC())
	if err != nil {
		s.metrics.incTransition("attend", "error")
		return nil, err
	}
	if !ok {
		s.metrics.incTransition("attend", "not_found")
		return nil, ErrNotFound
	}

	s.metrics.incTransition("attend", "ok")
	s.logger.Info(ctx, "encounter attended", "encounter_id", id)
	return e, nil
}

// Get fetches an encounter owned by the caller.
func (s *Service) Get(ctx context.Context, callerID, id string) (*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	if _, err := ulid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid encounter id", ErrBadRequest)
	}

	e, ok, err := s.store.Get(ctx, id, callerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// ListWaiting returns the caller's waiting encounters in storage order
// (creation time ascending).
func (s *Service) ListWaiting(ctx context.Context, callerID string) ([]*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}
	return s.store.ListWaiting(ctx, callerID)
}

// Queue returns the assembled work queue: the anonymous waiting set merged
// with the caller's own waiting encounters, deduplicated and in serving order.
func (s *Service) Queue(ctx context.Context, callerID string) ([]*Encounter, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}

	waiting, err := s.store.ListUnassigned(ctx)
	if err != nil {
		return nil, err
	}
	owned, err := s.store.ListWaiting(ctx, callerID)
	if err != nil {
		return nil, err
	}

	q := Assemble(waiting, owned)
	s.metrics.observeQueueSize(len(q))
	return q, nil
}

func (s *Service) notify(ctx context.Context, e *Encounter) {
	if s.notifier == nil || e.Severity < NotifySeverity {
		return
	}
	// Detach from the request context so a slow webhook cannot be cancelled
	// mid-flight by the intake response going out.
	go func(ctx context.Context, cp *Encounter) {
		if err := s.notifier.Send(ctx, cp); err != nil {
			s.logger.Error(ctx, err, "notify failed", "encounter_id", cp.ID)
		}
	}(context.WithoutCancel(ctx), e.Clone())
}

// triageSeverity extracts the severity score from a scorer result, defaulting
// to the lowest acuity when the field is missing or invalid.
func triageSeverity(t map[string]any) int {
	if t != nil {
		if v, ok := asInt(t["ESI"]); ok && v > 0 {
			return v
		}
	}
	return 1
}

// withSeverity copies the triage map with the denormalized severity written
// in. This is the single write path that keeps Encounter.Severity and the
// stored triage severity in sync.
func withSeverity(t map[string]any, sev int) map[string]any {
	out := make(map[string]any, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	out["severity"] = sev
	return out
}
