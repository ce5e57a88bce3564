package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/student-rentals/internal/events"
	"github.com/example/student-rentals/internal/ids"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

// RoomLookup is the read-only view of the catalog the booking engine needs.
type RoomLookup interface {
	FindRoomByID(ctx context.Context, id string) (persistence.Room, error)
}

// BookingService admits booking requests and records owner decisions. At most
// one ACCEPTED booking may cover any day of a room.
type BookingService struct {
	rooms        RoomLookup
	reservations persistence.ReservationStore
	publisher    events.Publisher
	idGenerator  func(prefix string) string
	now          func() time.Time
	logger       *slog.Logger
	locks        keyedMutex
}

// NewBookingService constructs a booking service with the provided dependencies.
func NewBookingService(rooms RoomLookup, reservations persistence.ReservationStore, publisher events.Publisher, idGenerator func(prefix string) string, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(rooms, reservations, publisher, idGenerator, now, nil)
}

// NewBookingServiceWithLogger constructs a booking service with a specified logger.
func NewBookingServiceWithLogger(rooms RoomLookup, reservations persistence.ReservationStore, publisher events.Publisher, idGenerator func(prefix string) string, now func() time.Time, logger *slog.Logger) *BookingService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if idGenerator == nil {
		idGenerator = ids.NewID
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		rooms:        rooms,
		reservations: reservations,
		publisher:    publisher,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room lookup not configured")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation store not configured")
	}
	return nil
}

// RequestBooking records a PENDING booking when the stay lies within the room's
// availability and no ACCEPTED booking of the room overlaps it. Pending
// requests never block each other.
func (s *BookingService) RequestBooking(ctx context.Context, req BookingRequest) (booking persistence.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RequestBooking",
		"student_id", req.StudentID,
		"room_id", req.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to request booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", booking.ID).With(bookingAttrs(booking)...).InfoContext(ctx, "booking requested")
	}()

	vErr := validateInput(req)
	if !req.StartDate.IsZero() && !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		vErr.add(fieldEndDate, "must not be before start_date")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	booking, err = s.admit(ctx, req)
	if err != nil {
		return
	}
	s.publish(ctx, logger, events.BookingRequested, booking)
	return
}

// admit stores the PENDING booking while holding the room lock.
func (s *BookingService) admit(ctx context.Context, req BookingRequest) (persistence.Booking, error) {
	roomID := strings.TrimSpace(req.RoomID)
	stay := scheduler.NewWindow(req.StartDate, req.EndDate)

	release := s.locks.Lock(roomID)
	defer release()

	room, err := s.rooms.FindRoomByID(ctx, roomID)
	if err != nil {
		return persistence.Booking{}, mapStoreError(err, "room", roomID)
	}
	if !room.Availability().Contains(stay) {
		return persistence.Booking{}, newValidationError(fieldStay, fmt.Sprintf("requested dates %s are outside the room's availability %s", stay, room.Availability()))
	}

	candidate := persistence.Booking{
		ID:        s.idGenerator("book"),
		RoomID:    room.ID,
		OwnerID:   room.OwnerID,
		StudentID: strings.TrimSpace(req.StudentID),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    persistence.BookingPending,
	}
	if err := s.ensureNoAcceptedOverlap(ctx, candidate); err != nil {
		return persistence.Booking{}, err
	}

	now := s.now()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	if err := s.reservations.Save(ctx, candidate); err != nil {
		return persistence.Booking{}, mapStoreError(err, "booking", candidate.ID)
	}
	return candidate, nil
}

// RespondToRequest moves a PENDING booking to ACCEPTED or REJECTED. Accepting
// re-runs the overlap check; a conflict leaves the booking PENDING.
func (s *BookingService) RespondToRequest(ctx context.Context, params RespondParams) (booking persistence.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "RespondToRequest",
		"owner_id", params.OwnerID,
		"booking_id", params.BookingID,
		"decision", string(params.Decision),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to respond to booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", booking.RoomID).With(bookingAttrs(booking)...).InfoContext(ctx, "booking decided")
	}()

	if params.Decision != persistence.BookingAccepted && params.Decision != persistence.BookingRejected {
		err = newValidationError(fieldDecision, "must be ACCEPTED or REJECTED")
		return
	}

	var existing persistence.Booking
	existing, err = s.reservations.FindByID(ctx, params.BookingID)
	if err != nil {
		err = mapStoreError(err, "booking", params.BookingID)
		return
	}
	if existing.OwnerID != params.OwnerID {
		err = ErrUnauthorized
		return
	}

	booking, err = s.decide(ctx, existing.RoomID, params)
	if err != nil {
		return
	}
	s.publish(ctx, logger, events.TypeForStatus(booking.Status), booking)
	return
}

// decide applies the owner's decision while holding the room lock.
func (s *BookingService) decide(ctx context.Context, roomID string, params RespondParams) (persistence.Booking, error) {
	release := s.locks.Lock(roomID)
	defer release()

	// Another decision may have landed while waiting for the room lock.
	existing, err := s.reservations.FindByID(ctx, params.BookingID)
	if err != nil {
		return persistence.Booking{}, mapStoreError(err, "booking", params.BookingID)
	}
	if existing.Status != persistence.BookingPending {
		return persistence.Booking{}, newValidationError(fieldStatus, fmt.Sprintf("only PENDING bookings can be responded to, booking is %s", existing.Status))
	}

	if params.Decision == persistence.BookingAccepted {
		if err := s.ensureNoAcceptedOverlap(ctx, existing); err != nil {
			return persistence.Booking{}, err
		}
	}

	updated := existing
	updated.Status = params.Decision
	updated.UpdatedAt = s.now()
	if err := s.reservations.Save(ctx, updated); err != nil {
		return persistence.Booking{}, mapStoreError(err, "booking", updated.ID)
	}
	return updated, nil
}

// PendingRequestsForOwner lists the owner's bookings awaiting a decision.
func (s *BookingService) PendingRequestsForOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error) {
	return s.list(ctx, "PendingRequestsForOwner", fieldOwnerID, ownerID, func(id string) ([]persistence.Booking, error) {
		return s.reservations.FindByOwnerAndStatus(ctx, id, persistence.BookingPending)
	})
}

// BookingsForOwner lists every booking on the owner's rooms.
func (s *BookingService) BookingsForOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error) {
	return s.list(ctx, "BookingsForOwner", fieldOwnerID, ownerID, func(id string) ([]persistence.Booking, error) {
		return s.reservations.FindByOwner(ctx, id)
	})
}

// BookingsForStudent lists every booking requested by the student.
func (s *BookingService) BookingsForStudent(ctx context.Context, studentID string) ([]persistence.Booking, error) {
	return s.list(ctx, "BookingsForStudent", fieldStudentID, studentID, func(id string) ([]persistence.Booking, error) {
		return s.reservations.FindByStudent(ctx, id)
	})
}

func (s *BookingService) list(ctx context.Context, operation, field, id string, find func(id string) ([]persistence.Booking, error)) (bookings []persistence.Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, operation, field, id)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	vErr := &ValidationError{}
	requireID(vErr, field, id)
	if vErr.HasErrors() {
		err = vErr
		return
	}
	bookings, err = find(strings.TrimSpace(id))
	return
}

// ensureNoAcceptedOverlap fails when an ACCEPTED booking of the candidate's room
// shares a day with the candidate. Callers must hold the room lock.
func (s *BookingService) ensureNoAcceptedOverlap(ctx context.Context, candidate persistence.Booking) error {
	accepted, err := s.reservations.FindByRoomAndStatus(ctx, candidate.RoomID, persistence.BookingAccepted)
	if err != nil {
		return err
	}
	conflicts := scheduler.DetectConflicts(toReservations(accepted), toReservation(candidate))
	if len(conflicts) == 0 {
		return nil
	}
	first := conflicts[0]
	return newValidationError(fieldAvailability, fmt.Sprintf("room is already booked for %s by booking %s", first.Window, first.WithReservationID))
}

// publish runs after the room lock is released, so a slow broker never stalls
// other requests for the room. Events of one room may reach the broker out of
// order; OccurredAt carries the booking's UpdatedAt for consumers to order by.
func (s *BookingService) publish(ctx context.Context, logger *slog.Logger, eventType events.Type, booking persistence.Booking) {
	event := events.NewBookingEvent(eventType, booking, booking.UpdatedAt)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish booking event", "event_type", string(eventType), "error", err)
	}
}

func toReservation(booking persistence.Booking) scheduler.Reservation {
	return scheduler.Reservation{ID: booking.ID, ResourceID: booking.RoomID, Window: booking.Window()}
}

func toReservations(bookings []persistence.Booking) []scheduler.Reservation {
	out := make([]scheduler.Reservation, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toReservation(booking))
	}
	return out
}
