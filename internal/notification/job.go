package notification

import (
	"fmt"
	"time"

	"mentorbook/internal/events"
)

// Job is one message for one recipient.
type Job struct {
	Type        events.Type `json:"type"`
	RecipientID string      `json:"recipient_id"`
	BookingID   string      `json:"booking_id"`
	Subject     string      `json:"subject"`
	Body        string      `json:"body"`
	Tries       int         `json:"tries"`
	Created     time.Time   `json:"created"`
}

const timeLayout = "Jan 2, 2006 at 3:04 PM MST"

// Compose renders the message the counterpart of e receives.
func Compose(e events.Event) Job {
	job := Job{
		Type:        e.Type,
		RecipientID: e.CounterpartID,
		BookingID:   e.BookingID,
		Created:     time.Now().UTC(),
	}
	when := e.ScheduledAt.Format(timeLayout)

	switch e.Type {
	case events.BookingRequested:
		job.Subject = "New booking request"
		job.Body = fmt.Sprintf("You have a new session request for %s. Accept or decline it from your dashboard.", when)
	case events.BookingAccepted:
		job.Subject = "Booking confirmed"
		job.Body = fmt.Sprintf("Your session on %s is confirmed.\nJoin here: %s", when, e.MeetingLink)
	case events.BookingDeclined:
		job.Subject = "Booking declined"
		job.Body = fmt.Sprintf("Your session request for %s was declined: %s\nThe full amount has been refunded to your wallet.", when, e.Reason)
	case events.BookingRescheduleRequested:
		proposed := "a new time"
		if e.ProposedAt != nil {
			proposed = e.ProposedAt.Format(timeLayout)
		}
		job.Subject = "Reschedule requested"
		job.Body = fmt.Sprintf("Your session on %s was asked to move to %s.\nReason: %s", when, proposed, e.Reason)
	case events.BookingCancelled:
		job.Subject = "Booking cancelled"
		job.Body = fmt.Sprintf("Your session on %s was cancelled. Any payment has been refunded.", when)
	case events.BookingReminder:
		job.Subject = "Upcoming session"
		job.Body = fmt.Sprintf("Reminder: your session starts %s.\nJoin here: %s", when, e.MeetingLink)
	default:
		job.Subject = "Booking update"
		job.Body = fmt.Sprintf("Your session on %s was updated.", when)
	}
	return job
}
