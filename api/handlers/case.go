package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/api"
	"github.com/civicwatch/case-api/caseengine"
	"github.com/civicwatch/case-api/config"
	"github.com/civicwatch/case-api/models"
	"github.com/civicwatch/case-api/storage"
)

var (
	// Page denotes the starting Page for pagination results
	Page = 0
)

// Case exported for testing purposes
type Case struct {
	Engine  *caseengine.Engine
	Storage storage.Storage
}

// caseRequest is the JSON body for case creation. Timestamps arrive as
// RFC3339 or as the datetime-local form value.
type caseRequest struct {
	ReferenceNumber      string          `json:"referenceNumber"`
	FiledAt              string          `json:"filedAt"`
	Category             string          `json:"category"`
	Status               string          `json:"status"`
	Station              string          `json:"station"`
	InvestigatingOfficer string          `json:"investigatingOfficer"`
	Complainant          models.Person   `json:"complainant"`
	InvolvedPersons      []models.Person `json:"involvedPersons"`
	Location             models.Location `json:"location"`
	Tags                 []string        `json:"tags"`
	Description          string          `json:"description"`
}

type casesResponse struct {
	Data       []models.Case `json:"data"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalCount int           `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
}

// CreateCaseHandler files a new case
func (c Case) CreateCaseHandler(w http.ResponseWriter, r *http.Request) {
	var req caseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	filedAt, err := parseTimestamp(req.FiledAt)
	if err != nil {
		config.ErrorStatus("failed to parse filedAt", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.Engine.CreateCase(ctx, caseengine.CreateCaseParams{
		ReferenceNumber:      req.ReferenceNumber,
		FiledAt:              filedAt,
		Category:             req.Category,
		Status:               models.CaseStatus(req.Status),
		Station:              req.Station,
		InvestigatingOfficer: req.InvestigatingOfficer,
		Complainant:          req.Complainant,
		InvolvedPersons:      req.InvolvedPersons,
		Location:             req.Location,
		Tags:                 req.Tags,
		Description:          req.Description,
	})
	if err != nil {
		engineError("failed to create case", w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// CaseByIDHandler returns a case by ID
func (c Case) CaseByIDHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.Engine.GetCase(ctx, cID)
	if err != nil {
		engineError("failed to get case by ID", w, err)
		return
	}

	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CasesHandler returns all cases run through the status filter, free-text
// search and sort, then paginated
func (c Case) CasesHandler(w http.ResponseWriter, r *http.Request) {
	Limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		zap.S().Warnf(fmt.Sprintf("limit not set, using default of %v, err: %v", Limit|10, err))
	}
	Page = getPage(Page, r)

	status := models.CaseStatus(r.URL.Query().Get("status"))
	query := r.URL.Query().Get("q")
	sortKey := caseengine.SortKey(r.URL.Query().Get("sort"))

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.Engine.ListCases(ctx, status, query, sortKey)
	if err != nil {
		engineError("failed to get cases", w, err)
		return
	}

	total := len(dbResp)
	if Limit > 0 {
		start := Page * Limit
		if start > total {
			start = total
		}
		end := start + Limit
		if end > total {
			end = total
		}
		dbResp = dbResp[start:end]
	}
	// Because the frontend requires that the data elements exist, if
	// len == 0 then we will just return an empty data object
	if len(dbResp) == 0 {
		dbResp = []models.Case{}
	}

	totalPages := 1
	if Limit > 0 {
		totalPages = (total + Limit - 1) / Limit
	}
	b, err := json.Marshal(casesResponse{
		Data:       dbResp,
		Page:       Page,
		Limit:      Limit,
		TotalCount: total,
		TotalPages: totalPages,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateCaseStatusHandler moves a case to a new status
func (c Case) UpdateCaseStatusHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Engine.SetStatus(ctx, cID, models.CaseStatus(req.Status)); err != nil {
		engineError("failed to update case status", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCaseFieldsHandler partially updates the descriptive fields of a case
func (c Case) UpdateCaseFieldsHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req struct {
		Category             *string          `json:"category"`
		InvestigatingOfficer *string          `json:"investigatingOfficer"`
		Location             *models.Location `json:"location"`
		Description          *string          `json:"description"`
		Tags                 *[]string        `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	err = c.Engine.UpdateFields(ctx, cID, caseengine.UpdateFieldsParams{
		Category:             req.Category,
		InvestigatingOfficer: req.InvestigatingOfficer,
		Location:             req.Location,
		Description:          req.Description,
		Tags:                 req.Tags,
	})
	if err != nil {
		engineError("failed to update case", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCaseHandler deletes a case and revokes the storage refs of its
// evidence
func (c Case) DeleteCaseHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	refs, err := c.Engine.DeleteCase(ctx, cID)
	if err != nil {
		engineError("failed to delete case", w, err)
		return
	}

	// revocation is best-effort: the record is already gone and a leaked
	// binary is preferable to a delete that cannot complete
	if c.Storage != nil {
		for _, ref := range refs {
			if err := c.Storage.Revoke(ctx, ref); err != nil {
				zap.S().With(err).Warnf("failed to revoke storage ref %v", ref)
			}
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddNoteHandler appends an entry to the internal case log
func (c Case) AddNoteHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req struct {
		Text   string `json:"text"`
		Author string `json:"author"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	note, err := c.Engine.AddNote(ctx, cID, req.Text, req.Author)
	if err != nil {
		engineError("failed to add note", w, err)
		return
	}

	b, err := json.Marshal(note)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// AddInvolvedPersonHandler attaches a person to a case
func (c Case) AddInvolvedPersonHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req models.Person
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Engine.AddInvolvedPerson(ctx, cID, req); err != nil {
		engineError("failed to add involved person", w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// caseIDFromRequest parses the case_id path variable. On failure it has
// already written the error response.
func caseIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, error) {
	caseID := mux.Vars(r)["case_id"]

	zap.S().Debugf("case_id: %v", caseID)

	cID, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		config.ErrorStatus("failed to get objectID from Hex", http.StatusBadRequest, w, err)
		return primitive.NilObjectID, err
	}
	return cID, nil
}

// engineError maps the engine sentinel errors onto http status codes
func engineError(message string, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, caseengine.ErrNotFound):
		config.ErrorStatus(message, http.StatusNotFound, w, err)
	case errors.Is(err, caseengine.ErrInvalidInput):
		config.ErrorStatus(message, http.StatusBadRequest, w, err)
	default:
		config.ErrorStatus(message, http.StatusInternalServerError, w, err)
	}
}

// parseTimestamp accepts RFC3339 or the value of an html datetime-local
// input. Empty input is a zero time, not an error.
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", s)
}

func getPage(Page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", Page)
	} else {
		var err error
		Page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if Page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", Page))
			return 0
		}
	}
	return Page
}
