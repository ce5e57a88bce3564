package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

func sampleBooking(id string, status persistence.BookingStatus) persistence.Booking {
	return persistence.Booking{
		ID:        id,
		RoomID:    "room-1",
		OwnerID:   "own-1",
		StudentID: "stu-1",
		StartDate: scheduler.MustParseDate("2025-09-01"),
		EndDate:   scheduler.MustParseDate("2025-09-30"),
		Status:    status,
	}
}

func TestReservations_ResaveHasNoDuplicateRows(t *testing.T) {
	ctx := context.Background()
	store := NewReservations()

	booking := sampleBooking("book-1", persistence.BookingPending)
	_ = store.Save(ctx, booking)
	booking.Status = persistence.BookingAccepted
	_ = store.Save(ctx, booking)

	if got := len(store.byRoom["room-1"]); got != 2 {
		t.Fatalf("expected the room index to hold the id twice, got %d", got)
	}

	for name, find := range map[string]func() ([]persistence.Booking, error){
		"student": func() ([]persistence.Booking, error) { return store.FindByStudent(ctx, "stu-1") },
		"owner":   func() ([]persistence.Booking, error) { return store.FindByOwner(ctx, "own-1") },
		"room":    func() ([]persistence.Booking, error) { return store.FindByRoomAndStatus(ctx, "room-1", persistence.BookingAccepted) },
	} {
		rows, err := find()
		if err != nil {
			t.Fatalf("%s lookup failed: %v", name, err)
		}
		if len(rows) != 1 {
			t.Fatalf("%s lookup returned %d rows, want 1", name, len(rows))
		}
		if rows[0].Status != persistence.BookingAccepted {
			t.Fatalf("%s lookup returned stale status %s", name, rows[0].Status)
		}
	}

	pending, _ := store.FindByRoomAndStatus(ctx, "room-1", persistence.BookingPending)
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after overwrite, got %d", len(pending))
	}
}

func TestReservations_FilterByStatus(t *testing.T) {
	ctx := context.Background()
	store := NewReservations()

	_ = store.Save(ctx, sampleBooking("book-1", persistence.BookingPending))
	_ = store.Save(ctx, sampleBooking("book-2", persistence.BookingAccepted))
	_ = store.Save(ctx, sampleBooking("book-3", persistence.BookingPending))

	pending, err := store.FindByOwnerAndStatus(ctx, "own-1", persistence.BookingPending)
	if err != nil {
		t.Fatalf("FindByOwnerAndStatus failed: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "book-1" || pending[1].ID != "book-3" {
		t.Fatalf("unexpected pending bookings %+v", pending)
	}
}

func TestReservations_StaleIndexEntriesAreSkipped(t *testing.T) {
	ctx := context.Background()
	store := NewReservations()

	_ = store.Save(ctx, sampleBooking("book-1", persistence.BookingPending))
	store.byStudent["stu-1"] = append(store.byStudent["stu-1"], "book-ghost")

	rows, err := store.FindByStudent(ctx, "stu-1")
	if err != nil {
		t.Fatalf("expected stale id to be tolerated, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	if _, err := store.FindByID(ctx, "book-ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}
