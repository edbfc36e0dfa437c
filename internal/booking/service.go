package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"mentorbook/internal/apperr"
	"mentorbook/internal/catalog"
	"mentorbook/internal/events"
	"mentorbook/internal/logger"
	"mentorbook/internal/meeting"
	"mentorbook/internal/metrics"
	"mentorbook/internal/pricing"
	"mentorbook/internal/wallet"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBookingNotFound   = apperr.New(apperr.KindNotFound, "booking not found")
	ErrInvalidDuration   = apperr.New(apperr.KindValidation, "duration must be positive")
	ErrProviderInactive  = apperr.New(apperr.KindValidation, "provider is not accepting bookings")
	ErrServiceMismatch   = apperr.New(apperr.KindValidation, "service does not belong to provider")
	ErrReasonRequired    = apperr.New(apperr.KindValidation, "reason is required")
	ErrReasonTooShort    = apperr.New(apperr.KindValidation, "reason is too short")
	ErrNotParticipant    = apperr.New(apperr.KindForbidden, "not a participant of this booking")
	ErrInvalidTransition = apperr.New(apperr.KindInvalidTransition, "invalid booking transition")
	ErrNoSession         = apperr.New(apperr.KindForbidden, "no accepted session with this provider")
	ErrSessionNotOver    = apperr.New(apperr.KindValidation, "session has not finished yet")
)

// InvalidTransition reports a transition that conflicts with the current
// state.
func InvalidTransition(from, to Status) error {
	return apperr.Wrapf(ErrInvalidTransition, "cannot move booking from %s to %s", from, to).
		WithDetail("from", string(from)).
		WithDetail("to", string(to))
}

type Catalog interface {
	GetProvider(ctx context.Context, id string) (*catalog.Provider, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
	LockService(ctx context.Context, id string) error
}

type Ledger interface {
	Hold(ctx context.Context, accountID, ref string, amount decimal.Decimal) error
	Release(ctx context.Context, accountID, ref string) (decimal.Decimal, error)
	Capture(ctx context.Context, from, to, ref string, amount, commissionRate decimal.Decimal) (wallet.Settlement, error)
	RefundCaptured(ctx context.Context, ref string) (wallet.Settlement, error)
	Settlement(ref string) (wallet.Settlement, bool)
}

type Meetings interface {
	HasAnyConnected(ctx context.Context, providerID string) (bool, error)
	Primary(ctx context.Context, providerID string) (meeting.Link, error)
}

type Config struct {
	CommissionRate decimal.Decimal
}

type Service interface {
	Create(ctx context.Context, in CreateInput) (*Request, error)
	Accept(ctx context.Context, id, actorID string) (*Request, error)
	Decline(ctx context.Context, id, actorID, reason string) (*Request, error)
	RequestReschedule(ctx context.Context, id, actorID string, proposedAt time.Time, reason string) (*Request, error)
	Cancel(ctx context.Context, id, actorID string) (*Request, error)

	Get(ctx context.Context, id string) (*Request, error)
	ListForMentee(ctx context.Context, menteeID string) ([]Request, error)
	ListForProvider(ctx context.Context, providerID string) ([]Request, error)
	Upcoming(ctx context.Context, from, to time.Time) ([]Request, error)
	// VerifySession checks that bookingID is an accepted booking of menteeID
	// with providerID whose session has ended.
	VerifySession(ctx context.Context, bookingID, menteeID, providerID string) error
}

type service struct {
	cfg      Config
	repo     Repository
	catalog  Catalog
	ledger   Ledger
	meetings Meetings
	events   events.Publisher
	locks    *keyedMutex
	validate *validator.Validate
	now      func() time.Time
}

func NewService(cfg Config, repo Repository, cat Catalog, ledger Ledger, meetings Meetings, publisher events.Publisher) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		catalog:  cat,
		ledger:   ledger,
		meetings: meetings,
		events:   publisher,
		locks:    newKeyedMutex(),
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *service) Create(ctx context.Context, in CreateInput) (req *Request, err error) {
	defer func() { metrics.RecordTransition("create", err) }()

	if in.DurationMinutes <= 0 {
		return nil, apperr.Wrapf(ErrInvalidDuration, "duration must be positive, got %d", in.DurationMinutes).
			WithDetail("field", "duration_minutes")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, inputError(err)
	}

	provider, err := s.catalog.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if !provider.Active {
		return nil, apperr.Wrapf(ErrProviderInactive, "provider %s is not accepting bookings", provider.ID)
	}

	price, err := s.price(ctx, provider, in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	req = &Request{
		ID:              uuid.NewString(),
		ProviderID:      in.ProviderID,
		MenteeID:        in.MenteeID,
		ServiceID:       in.ServiceID,
		ScheduledAt:     in.ScheduledAt.UTC(),
		DurationMinutes: in.DurationMinutes,
		Message:         strings.TrimSpace(in.Message),
		Status:          StatusPending,
		Price:           price,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	if err := s.ledger.Hold(ctx, wallet.MenteeAccount(req.MenteeID), req.ID, price); err != nil {
		return nil, err
	}
	req.Paid = true

	if err := ctx.Err(); err != nil {
		s.compensate(ctx, req, "create cancelled")
		return nil, err
	}
	if err := s.repo.Create(ctx, req); err != nil {
		s.compensate(ctx, req, "create not persisted")
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperr.Wrap(err, apperr.KindRetryable, "booking could not be saved, funds were released")
	}

	if req.ServiceID != "" {
		if err := s.catalog.LockService(context.WithoutCancel(ctx), req.ServiceID); err != nil {
			logger.WithError(err).Warn("failed to lock booked service", "service_id", req.ServiceID, "booking_id", req.ID)
		}
	}

	logger.Info("booking requested", "booking_id", req.ID, "provider_id", req.ProviderID,
		"mentee_id", req.MenteeID, "price", req.Price.StringFixed(2))
	s.publish(ctx, events.BookingRequested, req, req.MenteeID, "")
	return clone(req), nil
}

// price is computed once, at creation. Service bookings scale the service
// price to the booked duration; ad-hoc bookings use the provider's base rate.
func (s *service) price(ctx context.Context, provider *catalog.Provider, in CreateInput) (decimal.Decimal, error) {
	if in.ServiceID == "" {
		return pricing.SessionPrice(provider.BaseRate, in.DurationMinutes)
	}

	svc, err := s.catalog.GetService(ctx, in.ServiceID)
	if err != nil {
		return decimal.Zero, err
	}
	if svc.ProviderID != provider.ID {
		return decimal.Zero, apperr.Wrapf(ErrServiceMismatch, "service %s does not belong to provider %s", svc.ID, provider.ID)
	}
	if svc.Retired() {
		return decimal.Zero, catalog.RetiredService(svc)
	}
	return pricing.ServicePrice(svc.Price, svc.DurationMinutes, in.DurationMinutes)
}

// compensate releases the hold placed for a booking that was never committed.
func (s *service) compensate(ctx context.Context, req *Request, reason string) {
	metrics.RecordCompensation()
	if _, err := s.ledger.Release(context.WithoutCancel(ctx), wallet.MenteeAccount(req.MenteeID), req.ID); err != nil {
		logger.WithError(err).Error("failed to release hold", "booking_id", req.ID, "reason", reason)
		return
	}
	logger.Warn("hold released", "booking_id", req.ID, "reason", reason)
}

func (s *service) Accept(ctx context.Context, id, actorID string) (out *Request, err error) {
	defer func() { metrics.RecordTransition("accept", err) }()

	unlock := s.locks.Lock(id)
	defer unlock()

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if req.Status == StatusAccepted {
		return req, nil
	}
	if req.Status != StatusPending && req.Status != StatusRescheduleRequested {
		return nil, InvalidTransition(req.Status, StatusAccepted)
	}
	if actor := s.responder(req); actorID != actor {
		return nil, apperr.Wrapf(ErrNotParticipant, "only %s can accept this booking", actor)
	}

	connected, err := s.meetings.HasAnyConnected(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if !connected {
		return nil, apperr.Wrapf(meeting.ErrNotConfigured, "provider %s has no connected meeting platform", req.ProviderID)
	}
	link, err := s.meetings.Primary(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Captured {
		_, err := s.ledger.Capture(ctx, wallet.MenteeAccount(req.MenteeID), wallet.EarningsAccount(req.ProviderID),
			req.ID, req.Price, s.cfg.CommissionRate)
		if err != nil {
			return nil, err
		}
	}

	next := clone(req)
	if req.Status == StatusRescheduleRequested && req.ProposedAt != nil {
		next.ScheduledAt = *req.ProposedAt
		next.ProposedAt = nil
	}
	next.Status = StatusAccepted
	next.Captured = true
	next.MeetingLink = link.URL

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.Info("booking accepted", "booking_id", id, "actor_id", actorID, "from", string(req.Status),
		"platform", link.Platform)
	s.publish(ctx, events.BookingAccepted, next, actorID, "")
	return next, nil
}

func (s *service) Decline(ctx context.Context, id, actorID, reason string) (out *Request, err error) {
	defer func() { metrics.RecordTransition("decline", err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired.WithDetail("field", "reason")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if req.Status == StatusDeclined {
		return req, nil
	}
	declinable := req.Status == StatusPending || (req.Status == StatusRescheduleRequested && !req.Captured)
	if !declinable {
		return nil, InvalidTransition(req.Status, StatusDeclined)
	}
	if actor := s.responder(req); actorID != actor {
		return nil, apperr.Wrapf(ErrNotParticipant, "only %s can decline this booking", actor)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.refund(ctx, req); err != nil {
		return nil, err
	}

	next := clone(req)
	next.Status = StatusDeclined
	next.DeclineReason = reason
	next.Paid = false

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.Info("booking declined", "booking_id", id, "actor_id", actorID)
	s.publish(ctx, events.BookingDeclined, next, actorID, reason)
	return next, nil
}

func (s *service) RequestReschedule(ctx context.Context, id, actorID string, proposedAt time.Time, reason string) (out *Request, err error) {
	defer func() { metrics.RecordTransition("reschedule", err) }()

	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < MinRescheduleReason {
		return nil, apperr.Wrapf(ErrReasonTooShort, "reason must be at least %d characters", MinRescheduleReason).
			WithDetail("field", "reason")
	}
	if proposedAt.IsZero() {
		return nil, apperr.Validation("proposed_at", "is required")
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if req.Status == StatusRescheduleRequested {
		return req, nil
	}
	if req.Status != StatusPending && req.Status != StatusAccepted {
		return nil, InvalidTransition(req.Status, StatusRescheduleRequested)
	}

	proposed := proposedAt.UTC()
	next := clone(req)
	next.Status = StatusRescheduleRequested
	next.ProposedAt = &proposed
	next.RescheduleReason = reason
	next.RescheduledBy = actorID

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.Info("booking reschedule requested", "booking_id", id, "actor_id", actorID,
		"proposed_at", proposed.Format(time.RFC3339))
	s.publish(ctx, events.BookingRescheduleRequested, next, actorID, reason)
	return next, nil
}

func (s *service) Cancel(ctx context.Context, id, actorID string) (out *Request, err error) {
	defer func() { metrics.RecordTransition("cancel", err) }()

	unlock := s.locks.Lock(id)
	defer unlock()

	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !req.IsParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if req.Status == StatusCancelled {
		return req, nil
	}
	if req.Status == StatusDeclined {
		return nil, InvalidTransition(req.Status, StatusCancelled)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.refund(ctx, req); err != nil {
		return nil, err
	}

	next := clone(req)
	next.Status = StatusCancelled
	next.CancelledBy = actorID
	next.Paid = false

	if err := s.save(ctx, next); err != nil {
		return nil, err
	}

	logger.Info("booking cancelled", "booking_id", id, "actor_id", actorID, "from", string(req.Status),
		"captured", req.Captured)
	s.publish(ctx, events.BookingCancelled, next, actorID, "")
	return next, nil
}

// refund returns the mentee's money: a still-held amount is released, a
// captured payment is reversed on both sides.
func (s *service) refund(ctx context.Context, req *Request) error {
	if !req.Captured {
		released, err := s.ledger.Release(ctx, wallet.MenteeAccount(req.MenteeID), req.ID)
		if err != nil {
			return err
		}
		if released.IsPositive() {
			return nil
		}
		// A capture whose booking update was lost still has to be reversed.
		if _, ok := s.ledger.Settlement(req.ID); !ok {
			return nil
		}
	}

	_, err := s.ledger.RefundCaptured(ctx, req.ID)
	if errors.Is(err, wallet.ErrSettlementNotFound) {
		logger.Warn("no captured payment to refund", "booking_id", req.ID)
		return nil
	}
	return err
}

// responder is the participant expected to answer the current request: the
// provider for a new booking, the other party for a reschedule.
func (s *service) responder(req *Request) string {
	if req.Status == StatusRescheduleRequested {
		return req.Counterpart(req.RescheduledBy)
	}
	return req.ProviderID
}

// save persists a transition whose money movement already happened, so it
// ignores cancellation of ctx.
func (s *service) save(ctx context.Context, req *Request) error {
	req.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(context.WithoutCancel(ctx), req); err != nil {
		logger.WithError(err).Error("failed to persist booking", "booking_id", req.ID, "status", string(req.Status))
		return apperr.Wrap(err, apperr.KindRetryable, "booking could not be saved, retry the request")
	}
	return nil
}

// publish runs after the transition is committed, so delivery ignores
// cancellation of ctx.
func (s *service) publish(ctx context.Context, t events.Type, req *Request, actorID, reason string) {
	if s.events == nil {
		return
	}
	s.events.Publish(context.WithoutCancel(ctx), events.Event{
		Type:          t,
		BookingID:     req.ID,
		ActorID:       actorID,
		CounterpartID: req.Counterpart(actorID),
		MeetingLink:   req.MeetingLink,
		Reason:        reason,
		ScheduledAt:   req.ScheduledAt,
		ProposedAt:    req.ProposedAt,
		OccurredAt:    s.now().UTC(),
	})
}

func (s *service) Get(ctx context.Context, id string) (*Request, error) {
	return s.repo.Get(ctx, id)
}

func (s *service) ListForMentee(ctx context.Context, menteeID string) ([]Request, error) {
	return s.repo.ListByMentee(ctx, menteeID)
}

func (s *service) ListForProvider(ctx context.Context, providerID string) ([]Request, error) {
	return s.repo.ListByProvider(ctx, providerID)
}

func (s *service) Upcoming(ctx context.Context, from, to time.Time) ([]Request, error) {
	return s.repo.ListAcceptedBetween(ctx, from, to)
}

func (s *service) VerifySession(ctx context.Context, bookingID, menteeID, providerID string) error {
	req, err := s.repo.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if req.MenteeID != menteeID || req.ProviderID != providerID || req.Status != StatusAccepted {
		return apperr.Wrapf(ErrNoSession, "booking %s is not an accepted session of yours with provider %s", bookingID, providerID)
	}
	end := req.ScheduledAt.Add(time.Duration(req.DurationMinutes) * time.Minute)
	if s.now().Before(end) {
		return apperr.Wrapf(ErrSessionNotOver, "session ends at %s", end.Format(time.RFC3339)).
			WithDetail("ends_at", end)
	}
	return nil
}

func inputError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(err, apperr.KindValidation, "invalid booking request")
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field, "is required")
	case "nefield":
		return apperr.Validation(field, "cannot book yourself")
	case "max":
		return apperr.Validation(field, fmt.Sprintf("must be at most %s characters", fe.Param()))
	default:
		return apperr.Validation(field, "is invalid")
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}
