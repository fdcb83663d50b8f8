package caseengine

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/civicwatch/case-api/models"
)

// AddHearing appends a hearing in call order. The log never reorders by date;
// chronological correctness is the clerk's responsibility. When the hearing
// names a next hearing date it overwrites the case's cached one, otherwise the
// prior value stands.
func (e *Engine) AddHearing(ctx context.Context, caseID primitive.ObjectID, h models.Hearing) error {
	if h.Date == 0 {
		return fmt.Errorf("hearing date is required: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(h.Summary) == "" {
		return fmt.Errorf("hearing summary is required: %w", ErrInvalidInput)
	}
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		c.Details.Hearings = append(c.Details.Hearings, h)
		if h.NextHearingDate != nil {
			d := *h.NextHearingDate
			c.Details.NextHearingDate = &d
		}
		return nil
	})
	return err
}

// ClearNextHearingDate explicitly clears the cached next hearing date, e.g.
// after the final hearing of a trial.
func (e *Engine) ClearNextHearingDate(ctx context.Context, caseID primitive.ObjectID) error {
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		c.Details.NextHearingDate = nil
		return nil
	})
	return err
}

// SetCourtDetails replaces the judicial assignment block as a unit. Allowed at
// any status; court details routinely arrive before the status catches up.
func (e *Engine) SetCourtDetails(ctx context.Context, caseID primitive.ObjectID, details models.CourtDetails) error {
	_, err := e.mutate(ctx, caseID, func(c *models.Case) error {
		c.Details.CourtDetails = &details
		return nil
	})
	return err
}
