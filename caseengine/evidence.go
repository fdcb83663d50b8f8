package caseengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/models"
)

// NewEvidence carries the caller-supplied fields for one evidence item. The
// storage collaborator has already been paid a visit: StorageRef is the opaque
// locator it returned for the uploaded bytes.
type NewEvidence struct {
	Name        string
	StorageRef  string
	Kind        string
	UploadedBy  string
	Description string
}

func validEvidenceKind(kind string) bool {
	switch kind {
	case models.EvidenceImage, models.EvidenceDocument, models.EvidenceAudio, models.EvidenceVideo, models.EvidenceOther:
		return true
	}
	return false
}

// AddEvidence appends one or more evidence items with fresh ids and the
// current upload time. Kind defaults to "other" when unset.
func (e *Engine) AddEvidence(ctx context.Context, caseID primitive.ObjectID, items []NewEvidence) ([]models.Evidence, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one evidence item is required: %w", ErrInvalidInput)
	}
	now := primitive.NewDateTimeFromTime(e.now())
	added := make([]models.Evidence, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("evidence name is required: %w", ErrInvalidInput)
		}
		if strings.TrimSpace(item.StorageRef) == "" {
			return nil, fmt.Errorf("evidence storageRef is required: %w", ErrInvalidInput)
		}
		kind := item.Kind
		if kind == "" {
			kind = models.EvidenceOther
		}
		if !validEvidenceKind(kind) {
			return nil, fmt.Errorf("evidence kind %q is not valid: %w", item.Kind, ErrInvalidInput)
		}
		added = append(added, models.Evidence{
			ID:          uuid.New().String(),
			Name:        item.Name,
			StorageRef:  item.StorageRef,
			Kind:        kind,
			UploadedBy:  item.UploadedBy,
			UploadedAt:  now,
			Description: item.Description,
		})
	}
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		c.Details.Evidence = append(c.Details.Evidence, added...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.S().Infow("evidence attached", "caseId", caseID.Hex(), "count", len(added))
	return added, nil
}

// RemoveEvidence detaches the item and returns its storage ref. The caller is
// trusted to revoke the ref with the storage collaborator; the engine only
// signals that the handle is no longer needed.
func (e *Engine) RemoveEvidence(ctx context.Context, caseID primitive.ObjectID, evidenceID string) (string, error) {
	var ref string
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		for i, ev := range c.Details.Evidence {
			if ev.ID == evidenceID {
				ref = ev.StorageRef
				c.Details.Evidence = append(c.Details.Evidence[:i], c.Details.Evidence[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("evidence %s: %w", evidenceID, ErrNotFound)
	})
	if err != nil {
		return "", err
	}
	zap.S().Infow("evidence removed", "caseId", caseID.Hex(), "evidenceId", evidenceID)
	return ref, nil
}

// UpdateEvidenceDetails updates the mutable evidence fields. description and
// extractedText are applied only when non-nil; id, name, uploadedBy and
// uploadedAt are immutable after creation. Being called for an item that has
// since been removed is an ordinary ErrNotFound, which lets the asynchronous
// extraction write-back race deletion safely.
func (e *Engine) UpdateEvidenceDetails(ctx context.Context, caseID primitive.ObjectID, evidenceID string, description, extractedText *string) error {
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		for i := range c.Details.Evidence {
			if c.Details.Evidence[i].ID == evidenceID {
				if description != nil {
					c.Details.Evidence[i].Description = *description
				}
				if extractedText != nil {
					text := *extractedText
					c.Details.Evidence[i].ExtractedText = &text
				}
				return nil
			}
		}
		return fmt.Errorf("evidence %s: %w", evidenceID, ErrNotFound)
	})
	return err
}

// ExtractionResult is the outcome of one text-extraction request.
type ExtractionResult struct {
	EvidenceID string
	Text       string
	Err        error
}

// RequestTextExtraction hands the evidence item to the text-extraction
// collaborator and returns a one-shot channel with the eventual result. The
// engine does not extract and does not persist: the caller consumes the
// channel and writes the text back through UpdateEvidenceDetails. There is
// exactly one continuation per request, so no callback registry exists.
func (e *Engine) RequestTextExtraction(ctx context.Context, caseID primitive.ObjectID, evidenceID string) (<-chan ExtractionResult, error) {
	if e.extractor == nil {
		return nil, fmt.Errorf("no text-extraction collaborator configured: %w", ErrInvalidInput)
	}
	c, err := e.store.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	var found *models.Evidence
	for i := range c.Details.Evidence {
		if c.Details.Evidence[i].ID == evidenceID {
			found = &c.Details.Evidence[i]
			break
		}
	}
	if found == nil {
		return nil, fmt.Errorf("evidence %s: %w", evidenceID, ErrNotFound)
	}

	ref := found.StorageRef
	ch := make(chan ExtractionResult, 1)
	go func() {
		// detached from the request context: extraction outlives the
		// HTTP request that started it
		text, err := e.extractor.Extract(context.Background(), ref, "")
		ch <- ExtractionResult{EvidenceID: evidenceID, Text: text, Err: err}
		close(ch)
	}()
	return ch, nil
}
