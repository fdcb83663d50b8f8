package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/civicwatch/case-api/databases/mocks"
	"github.com/civicwatch/case-api/models"
)

func TestNewScheduler(t *testing.T) {
	db := &mocks.CaseDatabase{}
	s := NewScheduler(db, "alerts@civicwatch.example")

	assert.NotNil(t, s.cron)
	assert.Equal(t, "alerts@civicwatch.example", s.AlertsEmail)
}

func TestSendHearingRemindersSkipsWithoutMailbox(t *testing.T) {
	db := &mocks.CaseDatabase{}
	s := NewScheduler(db, "")

	// no Find expectation set: reaching the database would fail the test
	s.sendHearingReminders()
	db.AssertExpectations(t)
}

func TestSendHearingRemindersSkipsWithoutUpcomingHearings(t *testing.T) {
	db := &mocks.CaseDatabase{}
	db.On("Find", mock.Anything, mock.Anything).Return([]models.Case{}, nil)

	s := NewScheduler(db, "alerts@civicwatch.example")
	s.sendHearingReminders()

	db.AssertExpectations(t)
}

func TestStartAndStop(t *testing.T) {
	db := &mocks.CaseDatabase{}
	s := NewScheduler(db, "")

	s.Start()
	s.Stop()
}
