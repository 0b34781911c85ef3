// Package encounterapi exposes the encounter pipeline over HTTP.
package encounterapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/helpdesk/internal/authmw"
	"github.com/linnemanlabs/helpdesk/internal/encounter"
	"github.com/linnemanlabs/helpdesk/internal/records"
)

// EncounterService defines the business operations encounterapi needs.
type EncounterService interface {
	RunTriage(ctx context.Context, callerID string, req *encounter.TriageRequest) (*encounter.Encounter, error)
	Start(ctx context.Context, callerID string, req *encounter.StartRequest) (*encounter.Encounter, error)
	Confirm(ctx context.Context, callerID, id, notes string) (*encounter.Encounter, error)
	Attend(ctx context.Context, callerID, id string) (*encounter.Encounter, error)
	Get(ctx context.Context, callerID, id string) (*encounter.Encounter, error)
	ListWaiting(ctx context.Context, callerID string) ([]*encounter.Encounter, error)
	Queue(ctx context.Context, callerID string) ([]*encounter.Encounter, error)
}

// RecordsService defines the clinical log operations encounterapi needs.
type RecordsService interface {
	RecordVitals(ctx context.Context, v *records.VitalsLog) (*records.VitalsLog, error)
	RecordInteraction(ctx context.Context, l *records.InteractionLog) (*records.InteractionLog, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger  log.Logger
	svc     EncounterService
	records RecordsService
	auth    *authmw.Auth
}

// New creates a new API handler.
func New(logger log.Logger, svc EncounterService, recordsSvc RecordsService, auth *authmw.Auth) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("encounter service is required"))
	}
	if auth == nil {
		panic(xerrors.New("auth middleware is required"))
	}
	return &API{
		logger:  logger,
		svc:     svc,
		records: recordsSvc,
		auth:    auth,
	}
}

// RegisterRoutes attaches API endpoints to the router. The triage intake is
// open to anonymous patients; everything else needs a nurse identity.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/encounters", func(r chi.Router) {
			r.With(a.auth.Optional).Post("/triage", a.handleRunTriage)

			r.Group(func(r chi.Router) {
				r.Use(a.auth.Require)
				r.Post("/", a.handleStart)
				r.Get("/waiting", a.handleListWaiting)
				r.Get("/queue", a.handleQueue)
				r.Get("/{id}", a.handleGet)
				r.Patch("/{id}/confirm", a.handleConfirm)
				r.Put("/{id}/attend", a.handleAttend)
			})
		})

		r.Route("/records", func(r chi.Router) {
			r.Use(a.auth.Optional)
			r.Post("/vitals", a.handleRecordVitals)
			r.Post("/interactions", a.handleRecordInteraction)
		})
	})
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything unmapped is an
// internal error whose detail stays in the log, not the response.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, encounter.ErrBadRequest):
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, encounter.ErrUnauthorized):
		a.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authorized"})
	case errors.Is(err, encounter.ErrNotFound):
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		a.logger.Error(r.Context(), err, "request failed", "path", r.URL.Path)
		a.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
