package encounterapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/helpdesk/internal/authmw"
	"github.com/linnemanlabs/helpdesk/internal/encounter"
)

func (a *API) handleRunTriage(w http.ResponseWriter, r *http.Request) {
	var req encounter.TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	e, err := a.svc.RunTriage(r.Context(), authmw.Identity(r.Context()), &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("helpdesk.encounter.id", e.ID),
		attribute.Int("helpdesk.encounter.severity", e.Severity),
	)

	a.writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleStart(w http.ResponseWriter, r *http.Request) {
	var req encounter.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	e, err := a.svc.Start(r.Context(), authmw.Identity(r.Context()), &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, e)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("helpdesk.encounter.id", id))

	e, err := a.svc.Get(r.Context(), authmw.Identity(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, e)
}

func (a *API) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// The body is optional; an empty or absent one leaves notes untouched.
	var req struct {
		NurseNotes string `json:"nurseNotes"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("helpdesk.encounter.id", id))

	e, err := a.svc.Confirm(r.Context(), authmw.Identity(r.Context()), id, req.NurseNotes)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, e)
}

func (a *API) handleAttend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("helpdesk.encounter.id", id))

	e, err := a.svc.Attend(r.Context(), authmw.Identity(r.Context()), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, e)
}

func (a *API) handleListWaiting(w http.ResponseWriter, r *http.Request) {
	es, err := a.svc.ListWaiting(r.Context(), authmw.Identity(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if es == nil {
		es = []*encounter.Encounter{}
	}

	a.writeJSON(w, http.StatusOK, es)
}

func (a *API) handleQueue(w http.ResponseWriter, r *http.Request) {
	es, err := a.svc.Queue(r.Context(), authmw.Identity(r.Context()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if es == nil {
		es = []*encounter.Encounter{}
	}

	a.writeJSON(w, http.StatusOK, es)
}
