package caseengine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicwatch/case-api/models"
)

func TestAddEvidenceDefaults(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "ref-1", Kind: models.EvidenceDocument, UploadedBy: "PC Verma"},
		{Name: "unknown.bin", StorageRef: "ref-2"},
	})
	require.NoError(t, err)
	require.Len(t, added, 2)

	assert.NotEmpty(t, added[0].ID)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.Equal(t, primitive.NewDateTimeFromTime(testClock), added[0].UploadedAt)
	assert.Equal(t, models.EvidenceOther, added[1].Kind)
	assert.Nil(t, added[0].ExtractedText)

	got, err := e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Details.Evidence, 2)
}

func TestAddEvidenceValidation(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	_, err = e.AddEvidence(context.Background(), c.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.AddEvidence(context.Background(), c.ID, []NewEvidence{{StorageRef: "ref"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.AddEvidence(context.Background(), c.ID, []NewEvidence{{Name: "a.pdf"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.AddEvidence(context.Background(), c.ID, []NewEvidence{{Name: "a.pdf", StorageRef: "ref", Kind: "hologram"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveEvidenceReturnsStorageRef(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "https://cdn.example/fir.pdf"},
	})
	require.NoError(t, err)

	ref, err := e.RemoveEvidence(context.Background(), c.ID, added[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/fir.pdf", ref)

	got, err := e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Details.Evidence)

	_, err = e.RemoveEvidence(context.Background(), c.ID, added[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEvidenceDetailsPartial(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "ref-1", Description: "scanned FIR"},
	})
	require.NoError(t, err)
	id := added[0].ID

	// nil fields leave the item untouched
	require.NoError(t, e.UpdateEvidenceDetails(context.Background(), c.ID, id, nil, nil))
	got, err := e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "scanned FIR", got.Details.Evidence[0].Description)
	assert.Nil(t, got.Details.Evidence[0].ExtractedText)

	// an empty extraction result is a real value, distinct from never-extracted
	empty := ""
	require.NoError(t, e.UpdateEvidenceDetails(context.Background(), c.ID, id, nil, &empty))
	got, err = e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Details.Evidence[0].ExtractedText)
	assert.Equal(t, "", *got.Details.Evidence[0].ExtractedText)

	// immutable fields stay put
	desc := "re-scanned FIR"
	require.NoError(t, e.UpdateEvidenceDetails(context.Background(), c.ID, id, &desc, nil))
	got, err = e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "re-scanned FIR", got.Details.Evidence[0].Description)
	assert.Equal(t, "fir.pdf", got.Details.Evidence[0].Name)
	assert.Equal(t, "ref-1", got.Details.Evidence[0].StorageRef)
}

func TestUpdateEvidenceDetailsAfterRemoval(t *testing.T) {
	e := newTestEngine(t)
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "ref-1"},
	})
	require.NoError(t, err)

	_, err = e.RemoveEvidence(context.Background(), c.ID, added[0].ID)
	require.NoError(t, err)

	text := "late extraction result"
	err = e.UpdateEvidenceDetails(context.Background(), c.ID, added[0].ID, nil, &text)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestTextExtraction(t *testing.T) {
	extractor := &fakeExtractor{
		extract: func(ctx context.Context, storageRef, mimeType string) (string, error) {
			assert.Equal(t, "ref-1", storageRef)
			return "FIR No. 2026/0001", nil
		},
	}
	e := New(NewMemoryStore(), extractor)
	e.now = func() time.Time { return testClock }

	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)
	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "ref-1"},
	})
	require.NoError(t, err)

	ch, err := e.RequestTextExtraction(context.Background(), c.ID, added[0].ID)
	require.NoError(t, err)

	res := <-ch
	require.NoError(t, res.Err)
	assert.Equal(t, added[0].ID, res.EvidenceID)
	assert.Equal(t, "FIR No. 2026/0001", res.Text)

	// channel is one-shot
	_, open := <-ch
	assert.False(t, open)

	// the engine does not persist the result itself
	got, err := e.GetCase(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Details.Evidence[0].ExtractedText)
}

func TestRequestTextExtractionFailure(t *testing.T) {
	extractor := &fakeExtractor{
		extract: func(ctx context.Context, storageRef, mimeType string) (string, error) {
			return "", errors.New("model overloaded")
		},
	}
	e := New(NewMemoryStore(), extractor)
	e.now = func() time.Time { return testClock }

	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)
	added, err := e.AddEvidence(context.Background(), c.ID, []NewEvidence{
		{Name: "fir.pdf", StorageRef: "ref-1"},
	})
	require.NoError(t, err)

	ch, err := e.RequestTextExtraction(context.Background(), c.ID, added[0].ID)
	require.NoError(t, err)

	res := <-ch
	assert.EqualError(t, res.Err, "model overloaded")
}

func TestRequestTextExtractionErrors(t *testing.T) {
	e := newTestEngine(t) // no extractor configured
	c, err := e.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	_, err = e.RequestTextExtraction(context.Background(), c.ID, "missing")
	assert.ErrorIs(t, err, ErrInvalidInput)

	extractor := &fakeExtractor{
		extract: func(ctx context.Context, storageRef, mimeType string) (string, error) {
			return "", nil
		},
	}
	e2 := New(NewMemoryStore(), extractor)
	e2.now = func() time.Time { return testClock }
	c2, err := e2.CreateCase(context.Background(), validParams())
	require.NoError(t, err)

	_, err = e2.RequestTextExtraction(context.Background(), c2.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e2.RequestTextExtraction(context.Background(), primitive.NewObjectID(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
