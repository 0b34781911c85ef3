package encounterapi

import (
	"encoding/json"
	"net/http"

	"github.com/linnemanlabs/helpdesk/internal/authmw"
	"github.com/linnemanlabs/helpdesk/internal/records"
)

func (a *API) handleRecordVitals(w http.ResponseWriter, r *http.Request) {
	var v records.VitalsLog
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	v.RecordedBy = authmw.Identity(r.Context())

	entry, err := a.records.RecordVitals(r.Context(), &v)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleRecordInteraction(w http.ResponseWriter, r *http.Request) {
	var l records.InteractionLog
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	l.RecordedBy = authmw.Identity(r.Context())

	entry, err := a.records.RecordInteraction(r.Context(), &l)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, entry)
}
