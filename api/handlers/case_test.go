package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicwatch/case-api/api/handlers"
	"github.com/civicwatch/case-api/caseengine"
	"github.com/civicwatch/case-api/models"
)

func newCaseHandler() (handlers.Case, *caseengine.Engine) {
	engine := caseengine.New(caseengine.NewMemoryStore(), nil)
	return handlers.Case{Engine: engine}, engine
}

func seedCase(t *testing.T, engine *caseengine.Engine) *models.Case {
	t.Helper()
	c, err := engine.CreateCase(context.Background(), caseengine.CreateCaseParams{
		ReferenceNumber: "FIR-2026-0001",
		Category:        "Theft",
		Complainant:     models.Person{Name: "Asha Rao"},
		Location:        models.Location{Address: "12 Harbor Road"},
	})
	require.NoError(t, err)
	return c
}

func TestCase_CreateCaseHandler(t *testing.T) {
	h, _ := newCaseHandler()

	body := `{
		"referenceNumber": "FIR-2026-0002",
		"filedAt": "2026-03-14T09:30",
		"category": "Assault",
		"status": "Under Investigation",
		"complainant": {"name": "Vikram Joshi"},
		"location": {"address": "Dock Road"}
	}`
	req, err := http.NewRequest("POST", "/api/v1/cases", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var got models.Case
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "FIR-2026-0002", got.Details.ReferenceNumber)
	assert.Equal(t, models.StatusUnderInvestigation, got.Details.Status)
	assert.False(t, got.ID.IsZero())
}

func TestCase_CreateCaseHandlerRejectsMissingFields(t *testing.T) {
	h, _ := newCaseHandler()

	req, err := http.NewRequest("POST", "/api/v1/cases", strings.NewReader(`{"category": "Theft"}`))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CreateCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to create case")
}

func TestCase_CaseByIDHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	req, err := http.NewRequest("GET", "/api/v1/case/"+c.ID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CaseByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.Case
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, c.ID, got.ID)
}

func TestCase_CaseByIDHandlerBadHex(t *testing.T) {
	h, _ := newCaseHandler()

	req, err := http.NewRequest("GET", "/api/v1/case/1234", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": "1234"})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CaseByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "failed to get objectID from Hex")
}

func TestCase_CaseByIDHandlerNotFound(t *testing.T) {
	h, _ := newCaseHandler()

	id := "5fc51f58c72ff10004dca382"
	req, err := http.NewRequest("GET", "/api/v1/case/"+id, nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": id})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CaseByIDHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCase_CasesHandlerFiltersAndPaginates(t *testing.T) {
	h, engine := newCaseHandler()
	seedCase(t, engine)
	seedCase(t, engine)
	seedCase(t, engine)

	req, err := http.NewRequest("GET", "/api/v1/cases?status=Reported&page=0&limit=2", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.CasesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got struct {
		Data       []models.Case `json:"data"`
		TotalCount int           `json:"totalCount"`
		TotalPages int           `json:"totalPages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got.Data, 2)
	assert.Equal(t, 3, got.TotalCount)
	assert.Equal(t, 2, got.TotalPages)
}

func TestCase_UpdateCaseStatusHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	body := bytes.NewReader([]byte(`{"status": "Closed"}`))
	req, err := http.NewRequest("PUT", "/api/v1/case/"+c.ID.Hex()+"/status", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateCaseStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	got, err := engine.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, got.Details.Status)
}

func TestCase_UpdateCaseStatusHandlerRejectsUnknown(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	body := bytes.NewReader([]byte(`{"status": "Archived"}`))
	req, err := http.NewRequest("PUT", "/api/v1/case/"+c.ID.Hex()+"/status", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateCaseStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCase_UpdateCaseFieldsHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	body := bytes.NewReader([]byte(`{"investigatingOfficer": "DI Mathur", "tags": ["urgent"]}`))
	req, err := http.NewRequest("PATCH", "/api/v1/case/"+c.ID.Hex(), body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.UpdateCaseFieldsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	got, err := engine.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "DI Mathur", got.Details.InvestigatingOfficer)
	assert.Equal(t, []string{"urgent"}, got.Details.Tags)
	assert.Equal(t, "Theft", got.Details.Category)
}

func TestCase_DeleteCaseHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	req, err := http.NewRequest("DELETE", "/api/v1/case/"+c.ID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.DeleteCaseHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	_, err = engine.GetCase(context.Background(), c.ID)
	assert.ErrorIs(t, err, caseengine.ErrNotFound)
}

func TestCase_AddNoteHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	body := bytes.NewReader([]byte(`{"text": "spoke to the complainant", "author": "PC Verma"}`))
	req, err := http.NewRequest("POST", "/api/v1/case/"+c.ID.Hex()+"/notes", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AddNoteHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	got, err := engine.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, got.Details.Notes, 1)
	assert.Equal(t, "PC Verma", got.Details.Notes[0].Author)
}

func TestCase_AddInvolvedPersonHandler(t *testing.T) {
	h, engine := newCaseHandler()
	c := seedCase(t, engine)

	body := bytes.NewReader([]byte(`{"role": "Accused", "name": "R. Pillai"}`))
	req, err := http.NewRequest("POST", "/api/v1/case/"+c.ID.Hex()+"/persons", body)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"case_id": c.ID.Hex()})

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AddInvolvedPersonHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	got, err := engine.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, got.Details.InvolvedPersons, 1)
	assert.Equal(t, models.RoleAccused, got.Details.InvolvedPersons[0].Role)
}
