package caseengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/models"
)

// CreateCaseParams carries the caller-supplied fields for a new case.
// Status defaults to Reported (the citizen-report path); the officer console
// passes Under Investigation. FiledAt defaults to the current time.
type CreateCaseParams struct {
	ReferenceNumber      string
	FiledAt              time.Time
	Category             string
	Status               models.CaseStatus
	Station              string
	InvestigatingOfficer string
	Complainant          models.Person
	InvolvedPersons      []models.Person
	Location             models.Location
	Tags                 []string
	Description          string
}

// CreateCase assigns a fresh id and persists a new case record.
func (e *Engine) CreateCase(ctx context.Context, p CreateCaseParams) (*models.Case, error) {
	if strings.TrimSpace(p.ReferenceNumber) == "" {
		return nil, fmt.Errorf("referenceNumber is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Category) == "" {
		return nil, fmt.Errorf("category is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Complainant.Name) == "" {
		return nil, fmt.Errorf("complainant name is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Location.Address) == "" {
		return nil, fmt.Errorf("location address is required: %w", ErrInvalidInput)
	}

	status := p.Status
	if status == "" {
		status = models.StatusReported
	}
	if !status.Valid() {
		return nil, fmt.Errorf("status %q is not a valid case status: %w", status, ErrInvalidInput)
	}

	filedAt := p.FiledAt
	if filedAt.IsZero() {
		filedAt = e.now()
	}
	if p.Complainant.Role == "" {
		p.Complainant.Role = models.RoleComplainant
	}

	involved := p.InvolvedPersons
	if involved == nil {
		involved = []models.Person{}
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	c := &models.Case{
		ID: primitive.NewObjectID(),
		Details: models.CaseDetails{
			ReferenceNumber:      p.ReferenceNumber,
			FiledAt:              primitive.NewDateTimeFromTime(filedAt),
			Category:             p.Category,
			Status:               status,
			Station:              p.Station,
			InvestigatingOfficer: p.InvestigatingOfficer,
			Complainant:          p.Complainant,
			InvolvedPersons:      involved,
			Hearings:             []models.Hearing{},
			Location:             p.Location,
			Tags:                 tags,
			Description:          p.Description,
			Evidence:             []models.Evidence{},
			Notes:                []models.Note{},
		},
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Put(ctx, c); err != nil {
		return nil, err
	}
	zap.S().Infow("case created",
		"caseId", c.ID.Hex(),
		"referenceNumber", c.Details.ReferenceNumber,
		"status", c.Details.Status,
	)
	return c, nil
}

// SetStatus assigns a new status unconditionally. Any status may move to any
// other, terminal statuses included; reopening a closed case is a supported
// operation, not an error.
func (e *Engine) SetStatus(ctx context.Context, id primitive.ObjectID, status models.CaseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("status %q is not a valid case status: %w", status, ErrInvalidInput)
	}
	_, err := e.mutate(ctx, id, func(c *models.Case) error {
		c.Details.Status = status
		return nil
	})
	if err == nil {
		zap.S().Infow("case status updated", "caseId", id.Hex(), "status", status)
	}
	return err
}

// UpdateFieldsParams holds the mutable descriptive fields. nil fields are left
// untouched; identity fields (id, referenceNumber, filedAt, status) and the
// sub-entity collections are not reachable from here.
type UpdateFieldsParams struct {
	Category             *string
	InvestigatingOfficer *string
	Location             *models.Location
	Description          *string
	Tags                 *[]string
}

// UpdateFields partially overwrites the descriptive fields of a case.
func (e *Engine) UpdateFields(ctx context.Context, id primitive.ObjectID, p UpdateFieldsParams) error {
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		return fmt.Errorf("category cannot be cleared: %w", ErrInvalidInput)
	}
	if p.Location != nil && strings.TrimSpace(p.Location.Address) == "" {
		return fmt.Errorf("location address cannot be cleared: %w", ErrInvalidInput)
	}
	_, err := e.mutate(ctx, id, func(c *models.Case) error {
		if p.Category != nil {
			c.Details.Category = *p.Category
		}
		if p.InvestigatingOfficer != nil {
			c.Details.InvestigatingOfficer = *p.InvestigatingOfficer
		}
		if p.Location != nil {
			c.Details.Location = *p.Location
		}
		if p.Description != nil {
			c.Details.Description = *p.Description
		}
		if p.Tags != nil {
			// insertion order kept, duplicates allowed; tags come from
			// free-text comma splitting in the console
			c.Details.Tags = append([]string(nil), *p.Tags...)
		}
		return nil
	})
	return err
}

// AddNote appends an entry to the internal case log with the current time.
func (e *Engine) AddNote(ctx context.Context, id primitive.ObjectID, text, author string) (*models.Note, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("note text is required: %w", ErrInvalidInput)
	}
	note := models.Note{
		Text:      text,
		Author:    author,
		Timestamp: primitive.NewDateTimeFromTime(e.now()),
	}
	_, err := e.mutate(ctx, id, func(c *models.Case) error {
		c.Details.Notes = append(c.Details.Notes, note)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// AddInvolvedPerson appends a person to the case. There is no uniqueness
// check: corroborating reports may legitimately name the same suspect twice.
func (e *Engine) AddInvolvedPerson(ctx context.Context, id primitive.ObjectID, p models.Person) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("person name is required: %w", ErrInvalidInput)
	}
	_, err := e.mutate(ctx, id, func(c *models.Case) error {
		c.Details.InvolvedPersons = append(c.Details.InvolvedPersons, p)
		return nil
	})
	return err
}
