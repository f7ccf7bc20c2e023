package services

import (
	"context"
	"time"

	"ruangpena/internal/models"

	log "github.com/sirupsen/logrus"
)

// Queue names used for published messages.
const (
	QueueJournalEvents = "journal_events"
	QueuePasswordReset = "password_reset"
)

// EventPublisher sends a JSON message to a named queue.
type EventPublisher interface {
	PublishJSON(ctx context.Context, queue string, payload interface{}) error
}

// publishEvent sends a lifecycle event. Failures are logged and never
// surface to the caller.
func publishEvent(ctx context.Context, publisher EventPublisher, event models.JournalEvent) {
	if publisher == nil {
		log.WithField("event", event.Event).Debug("event publisher is not configured, skipping")
		return
	}
	event.At = time.Now().Unix()
	if err := publisher.PublishJSON(ctx, QueueJournalEvents, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"event":   event.Event,
			"user_id": event.UserID,
		}).Warn("failed to publish event")
	}
}

// ResetCodeSender delivers a password reset code to the account owner.
type ResetCodeSender interface {
	SendResetCode(ctx context.Context, email, code string) error
}

// ResetCodeMessage is the payload queued for the mail worker.
type ResetCodeMessage struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// QueueResetCodeSender hands reset codes to a mail worker through the broker.
type QueueResetCodeSender struct {
	publisher EventPublisher
}

// NewQueueResetCodeSender creates a QueueResetCodeSender.
func NewQueueResetCodeSender(publisher EventPublisher) *QueueResetCodeSender {
	return &QueueResetCodeSender{publisher: publisher}
}

// SendResetCode publishes the code to the password reset queue.
func (s *QueueResetCodeSender) SendResetCode(ctx context.Context, email, code string) error {
	return s.publisher.PublishJSON(ctx, QueuePasswordReset, ResetCodeMessage{Email: email, Code: code})
}

// LogResetCodeSender simulates delivery by logging. Development only.
type LogResetCodeSender struct{}

// SendResetCode logs the code instead of sending it.
func (LogResetCodeSender) SendResetCode(_ context.Context, email, code string) error {
	log.WithFields(log.Fields{"email": email, "code": code}).Info("password reset code (simulated delivery)")
	return nil
}
