package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/api"
	"github.com/civicwatch/case-api/caseengine"
	"github.com/civicwatch/case-api/config"
	"github.com/civicwatch/case-api/models"
	"github.com/civicwatch/case-api/storage"
)

// extractionFailedText is stored as the extraction result when the AI
// collaborator fails, so the console has something to show the officer.
const extractionFailedText = "Error: The AI service could not process the document. Please check the file and try again."

// maxUploadBytes caps evidence uploads at 25MB
const maxUploadBytes = 25 << 20

// Evidence exported for testing purposes
type Evidence struct {
	Engine  *caseengine.Engine
	Storage storage.Storage
}

type evidenceItemRequest struct {
	Name        string `json:"name"`
	StorageRef  string `json:"storageRef"`
	Kind        string `json:"kind"`
	UploadedBy  string `json:"uploadedBy"`
	Description string `json:"description"`
}

// AddEvidenceHandler attaches already-uploaded evidence items to a case
func (e Evidence) AddEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	var req struct {
		Items []evidenceItemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	items := make([]caseengine.NewEvidence, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, caseengine.NewEvidence{
			Name:        item.Name,
			StorageRef:  item.StorageRef,
			Kind:        item.Kind,
			UploadedBy:  item.UploadedBy,
			Description: item.Description,
		})
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	added, err := e.Engine.AddEvidence(ctx, cID, items)
	if err != nil {
		engineError("failed to add evidence", w, err)
		return
	}

	b, err := json.Marshal(added)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UploadEvidenceHandler accepts a multipart file, stores the bytes with the
// storage collaborator and attaches the resulting item to the case
func (e Evidence) UploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}

	if e.Storage == nil {
		config.ErrorStatus("binary storage is not configured", http.StatusServiceUnavailable, w, nil)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		config.ErrorStatus("failed to read file from form", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ref, err := e.Storage.Upload(ctx, header.Filename, file)
	if err != nil {
		config.ErrorStatus("failed to upload file", http.StatusInternalServerError, w, err)
		return
	}

	added, err := e.Engine.AddEvidence(ctx, cID, []caseengine.NewEvidence{{
		Name:        header.Filename,
		StorageRef:  ref,
		Kind:        kindFromMIME(header.Header.Get("Content-Type")),
		UploadedBy:  r.FormValue("uploadedBy"),
		Description: r.FormValue("description"),
	}})
	if err != nil {
		// the case is gone or the input is bad; drop the orphaned binary
		if revokeErr := e.Storage.Revoke(ctx, ref); revokeErr != nil {
			zap.S().With(revokeErr).Warnf("failed to revoke storage ref %v", ref)
		}
		engineError("failed to add evidence", w, err)
		return
	}

	b, err := json.Marshal(added[0])
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateEvidenceHandler updates the mutable fields of an evidence item
func (e Evidence) UpdateEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}
	evidenceID := mux.Vars(r)["evidence_id"]

	var req struct {
		Description   *string `json:"description"`
		ExtractedText *string `json:"extractedText"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := e.Engine.UpdateEvidenceDetails(ctx, cID, evidenceID, req.Description, req.ExtractedText); err != nil {
		engineError("failed to update evidence", w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveEvidenceHandler detaches an evidence item and revokes its storage ref
func (e Evidence) RemoveEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}
	evidenceID := mux.Vars(r)["evidence_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	ref, err := e.Engine.RemoveEvidence(ctx, cID, evidenceID)
	if err != nil {
		engineError("failed to remove evidence", w, err)
		return
	}

	if e.Storage != nil && ref != "" {
		if err := e.Storage.Revoke(ctx, ref); err != nil {
			zap.S().With(err).Warnf("failed to revoke storage ref %v", ref)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtractTextHandler kicks off asynchronous text extraction for an evidence
// item. The request returns immediately; the result is written back to the
// evidence record when extraction completes.
func (e Evidence) ExtractTextHandler(w http.ResponseWriter, r *http.Request) {
	cID, err := caseIDFromRequest(w, r)
	if err != nil {
		return
	}
	evidenceID := mux.Vars(r)["evidence_id"]

	ch, err := e.Engine.RequestTextExtraction(r.Context(), cID, evidenceID)
	if err != nil {
		engineError("failed to request text extraction", w, err)
		return
	}

	go func() {
		res := <-ch
		text := res.Text
		if res.Err != nil {
			zap.S().With(res.Err).Errorf("text extraction failed for evidence %v", res.EvidenceID)
			text = extractionFailedText
		}
		// detached from the request context: the write-back happens after
		// the response has been sent
		err := e.Engine.UpdateEvidenceDetails(context.Background(), cID, res.EvidenceID, nil, &text)
		if errors.Is(err, caseengine.ErrNotFound) {
			// the item or case was deleted while extraction ran
			zap.S().Debugf("discarding extraction result for removed evidence %v", res.EvidenceID)
			return
		}
		if err != nil {
			zap.S().With(err).Errorf("failed to store extraction result for evidence %v", res.EvidenceID)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte(`{"status": "processing"}`))
}

// kindFromMIME buckets a content type into an evidence kind
func kindFromMIME(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.EvidenceImage
	case mimeType == "application/pdf":
		return models.EvidenceDocument
	case strings.HasPrefix(mimeType, "audio/"):
		return models.EvidenceAudio
	case strings.HasPrefix(mimeType, "video/"):
		return models.EvidenceVideo
	default:
		return models.EvidenceOther
	}
}
