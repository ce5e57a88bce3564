package persistence

import "context"

// CatalogStore owns properties and rooms together with the owner and city
// indices derived from them.
//
// Index lookups tolerate stale entries: an id listed in an index but missing
// from the primary records is skipped silently.
type CatalogStore interface {
	SaveProperty(ctx context.Context, property Property) error
	FindPropertyByID(ctx context.Context, id string) (Property, error)
	FindPropertiesByOwner(ctx context.Context, ownerID string) ([]Property, error)
	// DeleteProperty removes the property and its owner index entry. Deleting an
	// unknown property is a no-op.
	DeleteProperty(ctx context.Context, ownerID, propertyID string) error

	SaveRoom(ctx context.Context, city string, room Room) error
	FindRoomByID(ctx context.Context, id string) (Room, error)
	FindRoomsByCity(ctx context.Context, city string) ([]Room, error)
	FindAllRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, city, roomID string) error
}

// ReservationStore owns bookings together with their room, owner and student
// indices. Bookings are never deleted.
type ReservationStore interface {
	Save(ctx context.Context, booking Booking) error
	FindByID(ctx context.Context, id string) (Booking, error)
	FindByStudent(ctx context.Context, studentID string) ([]Booking, error)
	FindByOwner(ctx context.Context, ownerID string) ([]Booking, error)
	FindByOwnerAndStatus(ctx context.Context, ownerID string, status BookingStatus) ([]Booking, error)
	FindByRoomAndStatus(ctx context.Context, roomID string, status BookingStatus) ([]Booking, error)
}

// AccountStore keeps registered accounts keyed by id and by normalised email.
type AccountStore interface {
	CreateAccount(ctx context.Context, account Account) error
	FindAccountByID(ctx context.Context, id string) (Account, error)
	FindAccountByEmail(ctx context.Context, email string) (Account, error)
}
