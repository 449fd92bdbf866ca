package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional emails. Notification delivery is a
// collaborator concern; failures here never fail the triggering operation.
type EmailService interface {
	SendAccessDecision(ctx context.Context, toEmail, subjectTitle string, approved bool, idempotencyKey string) error
}

// NoopEmailService is used when outbound email is disabled (dev, tests).
type NoopEmailService struct{}

func (s *NoopEmailService) SendAccessDecision(ctx context.Context, toEmail, subjectTitle string, approved bool, idempotencyKey string) error {
	log.Printf("[EmailService] noop access decision email to=%s subject=%q approved=%t", toEmail, subjectTitle, approved)
	return nil
}

// ResendEmailService sends emails via the Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendAccessDecision(ctx context.Context, toEmail, subjectTitle string, approved bool, idempotencyKey string) error {
	if toEmail == "" {
		return fmt.Errorf("toEmail is required")
	}

	verdict := "approved"
	if !approved {
		verdict = "rejected"
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: fmt.Sprintf("Your access request was %s", verdict),
		Text:    fmt.Sprintf("Your request for access to %q has been %s.", subjectTitle, verdict),
		Html:    fmt.Sprintf("<p>Your request for access to <strong>%s</strong> has been <strong>%s</strong>.</p>", subjectTitle, verdict),
	}

	options := &resend.SendEmailOptions{}
	if strings.TrimSpace(idempotencyKey) != "" {
		options.IdempotencyKey = strings.TrimSpace(idempotencyKey)
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableEmailError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 500 * time.Millisecond):
		}
	}
	return lastErr
}

// isRetryableEmailError treats network-level failures as transient.
func isRetryableEmailError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset")
}
