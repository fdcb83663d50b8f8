package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/caseengine"
	"github.com/civicwatch/case-api/config"
	"github.com/civicwatch/case-api/databases"
	"github.com/civicwatch/case-api/models"
	"github.com/civicwatch/case-api/ocr"
	"github.com/civicwatch/case-api/storage"
)

// App stores the router, engine and collaborators, so they can be reused
type App struct {
	Router   *mux.Router
	Engine   *caseengine.Engine
	Storage  storage.Storage
	Config   config.Config
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	c := Case{Engine: a.Engine, Storage: a.Storage}
	e := Evidence{Engine: a.Engine, Storage: a.Storage}
	h := Hearing{Engine: a.Engine}
	cloudinaryHandler := CloudinaryHandler{}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/cases", http.HandlerFunc(c.CreateCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases", http.HandlerFunc(c.CasesHandler)).Methods("GET")
	apiCreate.Handle("/case/{case_id}", http.HandlerFunc(c.CaseByIDHandler)).Methods("GET")
	apiCreate.Handle("/case/{case_id}", http.HandlerFunc(c.UpdateCaseFieldsHandler)).Methods("PATCH")
	apiCreate.Handle("/case/{case_id}", http.HandlerFunc(c.DeleteCaseHandler)).Methods("DELETE")
	apiCreate.Handle("/case/{case_id}/status", http.HandlerFunc(c.UpdateCaseStatusHandler)).Methods("PUT")
	apiCreate.Handle("/case/{case_id}/notes", http.HandlerFunc(c.AddNoteHandler)).Methods("POST")
	apiCreate.Handle("/case/{case_id}/persons", http.HandlerFunc(c.AddInvolvedPersonHandler)).Methods("POST")

	apiCreate.Handle("/case/{case_id}/hearings", http.HandlerFunc(h.AddHearingHandler)).Methods("POST")
	apiCreate.Handle("/case/{case_id}/next-hearing", http.HandlerFunc(h.ClearNextHearingHandler)).Methods("DELETE")
	apiCreate.Handle("/case/{case_id}/court-details", http.HandlerFunc(h.SetCourtDetailsHandler)).Methods("PUT")

	apiCreate.Handle("/case/{case_id}/evidence", http.HandlerFunc(e.AddEvidenceHandler)).Methods("POST")
	apiCreate.Handle("/case/{case_id}/evidence/upload", http.HandlerFunc(e.UploadEvidenceHandler)).Methods("POST")
	apiCreate.Handle("/case/{case_id}/evidence/{evidence_id}", http.HandlerFunc(e.UpdateEvidenceHandler)).Methods("PATCH")
	apiCreate.Handle("/case/{case_id}/evidence/{evidence_id}", http.HandlerFunc(e.RemoveEvidenceHandler)).Methods("DELETE")
	apiCreate.Handle("/case/{case_id}/evidence/{evidence_id}/extract-text", http.HandlerFunc(e.ExtractTextHandler)).Methods("POST")

	apiCreate.Handle("/cloudinary/signature", http.HandlerFunc(cloudinaryHandler.GenerateSignature)).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(context.Background())
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("case-api has connected to the database")

	store := caseengine.NewMongoStore(databases.NewCaseDatabase(a.dbHelper))
	a.Engine = caseengine.New(store, ocr.NewGemini())

	if os.Getenv("CLOUDINARY_URL") != "" {
		cld, err := storage.NewCloudinary("case-evidence")
		if err != nil {
			zap.S().With(err).Error("failed to create cloudinary storage")
			return err
		}
		a.Storage = cld
	} else {
		zap.S().Warn("CLOUDINARY_URL is not set, evidence upload and revocation are disabled")
	}

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

// DBHelper exposes the database helper so main can hand it to the scheduler
func (a *App) DBHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
