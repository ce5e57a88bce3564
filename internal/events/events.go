// Package events publishes booking lifecycle notifications for downstream
// consumers such as mailers and dashboards.
package events

import (
	"context"
	"time"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

// Type names a booking lifecycle transition.
type Type string

const (
	BookingRequested Type = "booking.requested"
	BookingAccepted  Type = "booking.accepted"
	BookingRejected  Type = "booking.rejected"
)

// BookingEvent is the payload published after a booking is persisted.
type BookingEvent struct {
	Type       Type                      `json:"type"`
	BookingID  string                    `json:"booking_id"`
	RoomID     string                    `json:"room_id"`
	OwnerID    string                    `json:"owner_id"`
	StudentID  string                    `json:"student_id"`
	StartDate  scheduler.Date            `json:"start_date"`
	EndDate    scheduler.Date            `json:"end_date"`
	Status     persistence.BookingStatus `json:"status"`
	OccurredAt time.Time                 `json:"occurred_at"`
}

// NewBookingEvent snapshots booking into an event of the given type.
func NewBookingEvent(eventType Type, booking persistence.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		OwnerID:    booking.OwnerID,
		StudentID:  booking.StudentID,
		StartDate:  booking.StartDate,
		EndDate:    booking.EndDate,
		Status:     booking.Status,
		OccurredAt: at,
	}
}

// TypeForStatus returns the event type announcing a transition into status.
func TypeForStatus(status persistence.BookingStatus) Type {
	switch status {
	case persistence.BookingAccepted:
		return BookingAccepted
	case persistence.BookingRejected:
		return BookingRejected
	default:
		return BookingRequested
	}
}

// Publisher delivers booking events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, BookingEvent) error { return nil }
