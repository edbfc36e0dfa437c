package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending             Status = "pending"
	StatusAccepted            Status = "accepted"
	StatusDeclined            Status = "declined"
	StatusRescheduleRequested Status = "reschedule_requested"
	StatusCancelled           Status = "cancelled"
)

// MinRescheduleReason is the shortest reschedule reason accepted, after
// trimming.
const MinRescheduleReason = 10

// Request is a mentee's booking of a provider. Price is fixed at creation.
type Request struct {
	ID               string          `db:"id" json:"id"`
	ProviderID       string          `db:"provider_id" json:"provider_id"`
	MenteeID         string          `db:"mentee_id" json:"mentee_id"`
	ServiceID        string          `db:"service_id" json:"service_id,omitempty"`
	ScheduledAt      time.Time       `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes  int             `db:"duration_minutes" json:"duration_minutes"`
	Message          string          `db:"message" json:"message,omitempty"`
	Status           Status          `db:"status" json:"status"`
	Price            decimal.Decimal `db:"price" json:"price"`
	MeetingLink      string          `db:"meeting_link" json:"meeting_link,omitempty"`
	Paid             bool            `db:"paid" json:"paid"`
	Captured         bool            `db:"captured" json:"captured"`
	DeclineReason    string          `db:"decline_reason" json:"decline_reason,omitempty"`
	RescheduleReason string          `db:"reschedule_reason" json:"reschedule_reason,omitempty"`
	ProposedAt       *time.Time      `db:"proposed_at" json:"proposed_at,omitempty"`
	RescheduledBy    string          `db:"rescheduled_by" json:"rescheduled_by,omitempty"`
	CancelledBy      string          `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Counterpart returns the participant other than actorID.
func (r *Request) Counterpart(actorID string) string {
	if actorID == r.MenteeID {
		return r.ProviderID
	}
	return r.MenteeID
}

func (r *Request) IsParticipant(userID string) bool {
	return userID == r.MenteeID || userID == r.ProviderID
}

// CreateInput is a booking submission. An empty ServiceID books an ad-hoc
// session priced from the provider's base rate.
type CreateInput struct {
	ProviderID      string    `json:"provider_id" validate:"required"`
	MenteeID        string    `json:"mentee_id" validate:"required,nefield=ProviderID"`
	ServiceID       string    `json:"service_id"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes"`
	Message         string    `json:"message" validate:"max=1000"`
}

type DeclineRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RescheduleRequest struct {
	ProposedAt time.Time `json:"proposed_at" binding:"required"`
	Reason     string    `json:"reason" binding:"required"`
}
