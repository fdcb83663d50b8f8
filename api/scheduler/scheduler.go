// Package scheduler runs the periodic background jobs: a daily digest email
// for cases with hearings coming up in the next 24 hours.
package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicwatch/case-api/databases"
	templates "github.com/civicwatch/case-api/templates/html"
)

// Scheduler handles periodic background jobs for the case registry
type Scheduler struct {
	cron        *cron.Cron
	DB          databases.CaseDatabase
	AlertsEmail string
}

// NewScheduler creates a new scheduler instance. alertsEmail is the mailbox
// that receives the hearing digest.
func NewScheduler(db databases.CaseDatabase, alertsEmail string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		DB:          db,
		AlertsEmail: alertsEmail,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Send the upcoming-hearing digest daily at 6 AM UTC
	_, err := s.cron.AddFunc("0 6 * * *", s.sendHearingReminders)
	if err != nil {
		zap.S().Errorw("failed to register hearing reminder job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Hearing reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Hearing reminder scheduler stopped")
}

// sendHearingReminders mails a digest of every case whose next hearing falls
// inside the coming 24 hours
func (s *Scheduler) sendHearingReminders() {
	if s.AlertsEmail == "" {
		zap.S().Debug("no alerts mailbox configured, skipping hearing digest")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	oneDayFromNow := now.Add(24 * time.Hour)

	filter := bson.M{
		"case.nextHearingDate": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now),
			"$lt":  primitive.NewDateTimeFromTime(oneDayFromNow),
		},
	}

	cases, err := s.DB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find cases with upcoming hearings", "error", err)
		return
	}
	if len(cases) == 0 {
		zap.S().Debug("no hearings in the next 24 hours")
		return
	}

	subject := "Upcoming Hearings - CivicWatch Case Registry"
	htmlContent := templates.RenderHearingReminderEmail(cases)
	plainText := "One or more cases have hearings scheduled in the next 24 hours. Please check the registry."

	if err := s.sendEmail(s.AlertsEmail, "Case Registry Alerts", subject, htmlContent, plainText); err != nil {
		zap.S().Errorw("failed to send hearing digest", "error", err)
		return
	}

	zap.S().Infow("Sent hearing digest", "cases", len(cases))
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("CivicWatch Case API", "no-reply@civicwatch.example")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
