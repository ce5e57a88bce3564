package testfixtures

import (
	"testing"
	"time"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

func TestRoomFixtureOptions(t *testing.T) {
	from := scheduler.NewDate(2026, time.January, 5)
	room := NewRoomFixture(
		WithRoomRent(610),
		WithRoomAvailability(from, from.AddDays(90)),
		WithRoomType(persistence.RoomTypeDouble),
	).Persistence()

	if room.MonthlyRent != 610 || room.Type != persistence.RoomTypeDouble {
		t.Fatalf("options not applied: %#v", room)
	}
	if got := room.Availability().Days(); got != 91 {
		t.Fatalf("expected a 91 day window, got %d", got)
	}

	input := NewRoomFixture().Input()
	if input.Type != string(persistence.RoomTypeSingle) || !input.AvailableFrom.Before(input.AvailableTo) {
		t.Fatalf("unexpected default input: %#v", input)
	}
}

func TestBookingAndPropertyFixtures(t *testing.T) {
	booking := NewBookingFixture(WithBookingStatus(persistence.BookingRejected)).Persistence()
	if !booking.Status.Terminal() {
		t.Fatalf("expected a terminal status, got %q", booking.Status)
	}

	property := NewPropertyFixture(WithPropertyCity("York"), WithPropertyRooms("room-1")).Persistence()
	if property.City != "York" || !property.HasRoom("room-1") {
		t.Fatalf("options not applied: %#v", property)
	}
}

func TestAccountFixtures(t *testing.T) {
	student := NewStudentFixture(WithAccountPassword("hunter2"))
	if student.StudentRegistration().Password != "hunter2" {
		t.Fatal("expected password override in registration")
	}
	if principal := student.Principal(); !principal.IsStudent() || principal.UserID != student.ID {
		t.Fatalf("unexpected principal: %#v", principal)
	}

	owner := NewHomeownerFixture()
	account := owner.Persistence("hash")
	if account.Role() != persistence.RoleHomeowner || account.PasswordHash != "hash" {
		t.Fatalf("unexpected account: %#v", account)
	}
	if !account.CreatedAt.Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", account.CreatedAt)
	}
}
