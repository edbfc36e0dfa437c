package notification

import (
	"context"
	"time"

	"mentorbook/internal/events"
	"mentorbook/internal/logger"
	"mentorbook/internal/metrics"
)

const (
	DefaultMaxTries   = 3
	defaultPopTimeout = 2 * time.Second
	defaultRetryDelay = 5 * time.Second
)

type Service struct {
	queue      Queue
	sender     Sender
	maxTries   int
	popTimeout time.Duration
	retryDelay time.Duration
}

type Option func(*Service)

func WithRetryDelay(d time.Duration) Option {
	return func(s *Service) { s.retryDelay = d }
}

func WithPopTimeout(d time.Duration) Option {
	return func(s *Service) { s.popTimeout = d }
}

func New(queue Queue, sender Sender, maxTries int, opts ...Option) *Service {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	s := &Service{
		queue:      queue,
		sender:     sender,
		maxTries:   maxTries,
		popTimeout: defaultPopTimeout,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers the service on bus.
func (s *Service) Subscribe(bus *events.Bus) {
	bus.Subscribe(s.Notify)
}

// Notify queues a message for the counterpart of e.
func (s *Service) Notify(ctx context.Context, e events.Event) error {
	if e.CounterpartID == "" {
		return nil
	}
	job := Compose(e)

	if err := s.queue.Push(ctx, job); err != nil {
		logger.WithError(err).Error("failed to queue notification", "type", string(job.Type), "booking_id", job.BookingID)
		metrics.RecordNotification(string(job.Type), "enqueue_failed")
		return err
	}

	metrics.RecordNotification(string(job.Type), "queued")
	logger.Debug("notification queued", "type", string(job.Type), "recipient_id", job.RecipientID)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	job, ok, err := s.queue.Pop(ctx, s.popTimeout)
	metrics.SetNotificationQueueLength(s.queue.Len(context.WithoutCancel(ctx)))
	if err != nil {
		if ctx.Err() == nil {
			logger.WithError(err).Warn("failed to read notification queue")
		}
		return
	}
	if !ok {
		return
	}

	job.Tries++
	if err := s.sender.Send(ctx, job); err != nil {
		logger.WithError(err).Error("failed to send notification", "recipient_id", job.RecipientID, "attempt", job.Tries)

		if job.Tries < s.maxTries {
			s.retry(ctx, job)
			return
		}

		logger.Error("notification failed after max attempts", "recipient_id", job.RecipientID, "attempts", job.Tries)
		metrics.RecordNotification(string(job.Type), "failed")
		if err := s.queue.Fail(context.WithoutCancel(ctx), job, err); err != nil {
			logger.WithError(err).Error("failed to record failed notification")
		}
		return
	}

	metrics.RecordNotification(string(job.Type), "sent")
}

func (s *Service) retry(ctx context.Context, job Job) {
	select {
	case <-time.After(s.retryDelay):
	case <-ctx.Done():
	}

	metrics.RecordNotification(string(job.Type), "retried")
	if err := s.queue.Push(context.WithoutCancel(ctx), job); err != nil {
		logger.WithError(err).Error("failed to requeue notification", "recipient_id", job.RecipientID)
	}
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	return s.queue.Len(ctx)
}
