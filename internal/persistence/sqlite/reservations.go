package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/student-rentals/internal/persistence"
)

const bookingColumns = `id, room_id, owner_id, student_id, start_date, end_date, status, created_at, updated_at`

// Save upserts the booking.
func (s *Storage) Save(ctx context.Context, booking persistence.Booking) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				room_id = excluded.room_id,
				owner_id = excluded.owner_id,
				student_id = excluded.student_id,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				status = excluded.status,
				updated_at = excluded.updated_at`,
			booking.ID,
			booking.RoomID,
			booking.OwnerID,
			booking.StudentID,
			booking.StartDate.String(),
			booking.EndDate.String(),
			string(booking.Status),
			formatTime(booking.CreatedAt),
			formatTime(booking.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: save booking %s: %w", booking.ID, err)
		}
		return nil
	})
}

// FindByID retrieves a booking by id.
func (s *Storage) FindByID(ctx context.Context, id string) (persistence.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return booking, nil
}

// FindByStudent lists the student's bookings in request order.
func (s *Storage) FindByStudent(ctx context.Context, studentID string) ([]persistence.Booking, error) {
	return s.queryBookings(ctx, `WHERE student_id = ?`, studentID)
}

// FindByOwner lists the bookings on the owner's rooms in request order.
func (s *Storage) FindByOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error) {
	return s.queryBookings(ctx, `WHERE owner_id = ?`, ownerID)
}

// FindByOwnerAndStatus lists the owner's bookings currently in status.
func (s *Storage) FindByOwnerAndStatus(ctx context.Context, ownerID string, status persistence.BookingStatus) ([]persistence.Booking, error) {
	return s.queryBookings(ctx, `WHERE owner_id = ? AND status = ?`, ownerID, string(status))
}

// FindByRoomAndStatus lists the room's bookings currently in status.
func (s *Storage) FindByRoomAndStatus(ctx context.Context, roomID string, status persistence.BookingStatus) ([]persistence.Booking, error) {
	return s.queryBookings(ctx, `WHERE room_id = ? AND status = ?`, roomID, string(status))
}

func (s *Storage) queryBookings(ctx context.Context, where string, args ...any) ([]persistence.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings `+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list bookings: %w", err)
	}
	return collect(rows, scanBooking)
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		booking   persistence.Booking
		startDate string
		endDate   string
		status    string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.OwnerID,
		&booking.StudentID,
		&startDate,
		&endDate,
		&status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, err
	}

	dates, err := parseDates(startDate, endDate)
	if err != nil {
		return persistence.Booking{}, fmt.Errorf("sqlite: decode stay of booking %s: %w", booking.ID, err)
	}
	booking.StartDate, booking.EndDate = dates[0], dates[1]
	booking.Status = persistence.BookingStatus(status)
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}
