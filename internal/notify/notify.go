// Package notify tells applicants and downstream systems about accepted
// submissions. Every notifier here is best effort.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grant-intake/internal/common/logger"
)

// EventApplicationSubmitted is the SNS eventType attribute value.
const EventApplicationSubmitted = "application.submitted"

type Event struct {
	ApplicationID string    `json:"applicationId"`
	FormType      string    `json:"formType"`
	FormLabel     string    `json:"formLabel"`
	Title         string    `json:"title"`
	FirstName     string    `json:"-"`
	Email         string    `json:"-"`
	FileUploaded  bool      `json:"fileUploaded"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

type Notifier interface {
	ApplicationSubmitted(ctx context.Context, event Event) error
}

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

// EventPublisher is satisfied by aws.SNSClient.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topicARN, eventType, message string) (string, error)
}

type EmailNotifier struct {
	sender EmailSender
	from   string
	logger logger.Logger
}

func NewEmailNotifier(sender EmailSender, from string, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{sender: sender, from: from, logger: log}
}

func (n *EmailNotifier) ApplicationSubmitted(ctx context.Context, event Event) error {
	if event.Email == "" {
		return nil
	}

	subject := fmt.Sprintf("We received your %s application", event.FormLabel)
	body := confirmationBody(event)

	messageID, err := n.sender.SendText(ctx, n.from, event.Email, subject, body)
	if err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	n.logger.Info("Confirmation email sent", map[string]interface{}{
		"applicationId": event.ApplicationID,
		"messageId":     messageID,
	})
	return nil
}

func confirmationBody(event Event) string {
	name := event.FirstName
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf("Hi %s,\n\nThank you for your %s submission", name, event.FormLabel)
	if event.Title != "" {
		body += fmt.Sprintf(" \"%s\"", event.Title)
	}
	body += fmt.Sprintf(".\n\nYour reference is %s. We will be in touch once it has been reviewed.\n", event.ApplicationID)
	return body
}

type EventNotifier struct {
	publisher EventPublisher
	topicARN  string
	logger    logger.Logger
}

func NewEventNotifier(publisher EventPublisher, topicARN string, log logger.Logger) *EventNotifier {
	return &EventNotifier{publisher: publisher, topicARN: topicARN, logger: log}
}

func (n *EventNotifier) ApplicationSubmitted(ctx context.Context, event Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	messageID, err := n.publisher.PublishEvent(ctx, n.topicARN, EventApplicationSubmitted, string(message))
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventApplicationSubmitted, err)
	}
	n.logger.Debug("Application event published", map[string]interface{}{
		"applicationId": event.ApplicationID,
		"messageId":     messageID,
	})
	return nil
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) ApplicationSubmitted(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.ApplicationSubmitted(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
