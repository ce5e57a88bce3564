package memory

import (
	"context"
	"sync"

	"github.com/example/student-rentals/internal/persistence"
)

// Reservations implements persistence.ReservationStore.
//
// The room, owner and student indices are append-only id lists; Save appends
// unconditionally and lookups de-duplicate through the primary map.
type Reservations struct {
	mu        sync.RWMutex
	bookings  map[string]persistence.Booking
	byRoom    map[string][]string
	byOwner   map[string][]string
	byStudent map[string][]string
}

// NewReservations returns an empty reservation store.
func NewReservations() *Reservations {
	return &Reservations{
		bookings:  make(map[string]persistence.Booking),
		byRoom:    make(map[string][]string),
		byOwner:   make(map[string][]string),
		byStudent: make(map[string][]string),
	}
}

// Save stores the booking and appends its id to every index.
func (r *Reservations) Save(ctx context.Context, booking persistence.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings[booking.ID] = booking
	r.byRoom[booking.RoomID] = append(r.byRoom[booking.RoomID], booking.ID)
	r.byOwner[booking.OwnerID] = append(r.byOwner[booking.OwnerID], booking.ID)
	r.byStudent[booking.StudentID] = append(r.byStudent[booking.StudentID], booking.ID)
	return nil
}

// FindByID retrieves a booking by id.
func (r *Reservations) FindByID(ctx context.Context, id string) (persistence.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return booking, nil
}

// FindByStudent lists the student's bookings in request order.
func (r *Reservations) FindByStudent(ctx context.Context, studentID string) ([]persistence.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return materialize(r.byStudent[studentID], r.bookings, identity[persistence.Booking]), nil
}

// FindByOwner lists the bookings on the owner's rooms in request order.
func (r *Reservations) FindByOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return materialize(r.byOwner[ownerID], r.bookings, identity[persistence.Booking]), nil
}

// FindByOwnerAndStatus lists the owner's bookings currently in status.
func (r *Reservations) FindByOwnerAndStatus(ctx context.Context, ownerID string, status persistence.BookingStatus) ([]persistence.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return withStatus(materialize(r.byOwner[ownerID], r.bookings, identity[persistence.Booking]), status), nil
}

// FindByRoomAndStatus lists the room's bookings currently in status.
func (r *Reservations) FindByRoomAndStatus(ctx context.Context, roomID string, status persistence.BookingStatus) ([]persistence.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return withStatus(materialize(r.byRoom[roomID], r.bookings, identity[persistence.Booking]), status), nil
}

func withStatus(bookings []persistence.Booking, status persistence.BookingStatus) []persistence.Booking {
	out := bookings[:0]
	for _, booking := range bookings {
		if booking.Status == status {
			out = append(out, booking)
		}
	}
	return out
}

func identity[T any](v T) T { return v }
