package handlers

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicwatch/case-api/api"
	"github.com/civicwatch/case-api/caseengine"
	"github.com/civicwatch/case-api/config"
	"github.com/civicwatch/case-api/models"
)

// Hearing exported for testing purposes
type Hearing struct {
	Engine *caseengine.Engine
}

// AddHearingHandler appends a hearing to the case log
func (h Hearing) AddHearingHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req struct {
		Date            string `json:"date"`
		Summary         string `json:"summary"`
		NextHearingDate string `json:"nextHearingDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	date, err := parseTimestamp(req.Date)
	if err != nil {
		config.ErrorStatus("failed to parse date", http.StatusBadRequest, w, err)
		return
	}
	hearing := models.Hearing{
		Summary: req.Summary,
	}
	if !date.IsZero() {
		hearing.Date = primitive.NewDateTimeFromTime(date)
	}
	if req.NextHearingDate != "" {
		next, err := parseTimestamp(req.NextHearingDate)
		if err != nil {
			config.ErrorStatus("failed to parse nextHearingDate", http.StatusBadRequest, w, err)
			return
		}
		d := primitive.NewDateTimeFromTime(next)
		hearing.NextHearingDate = &d
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Engine.AddHearing(ctx, cID, hearing); err != nil {
		engineError("failed to add hearing", w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ClearNextHearingHandler clears the cached next hearing date, used when the
// final hearing has passed and nothing further is scheduled
func (h Hearing) ClearNextHearingHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Engine.ClearNextHearingDate(ctx, cID); err != nil {
		engineError("failed to clear next hearing date", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCourtDetailsHandler replaces the judicial assignment block as a unit
func (h Hearing) SetCourtDetailsHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req models.CourtDetails
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := h.Engine.SetCourtDetails(ctx, cID, req); err != nil {
		engineError("failed to set court details", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
