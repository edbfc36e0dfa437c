package notification

import (
	"context"

	"mentorbook/internal/logger"
)

// Sender delivers a rendered job to its recipient.
type Sender interface {
	Send(ctx context.Context, job Job) error
}

// LogSender writes jobs to the application log instead of a delivery channel.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, job Job) error {
	logger.Info("notification delivered",
		"type", string(job.Type),
		"recipient_id", job.RecipientID,
		"booking_id", job.BookingID,
		"subject", job.Subject,
	)
	return nil
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, job Job) error

func (f SenderFunc) Send(ctx context.Context, job Job) error { return f(ctx, job) }
