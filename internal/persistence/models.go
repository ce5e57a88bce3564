package persistence

import (
	"slices"
	"strings"
	"time"

	"github.com/example/student-rentals/internal/scheduler"
)

// RoomType enumerates the kinds of rentable rooms.
type RoomType string

const (
	RoomTypeSingle RoomType = "SINGLE"
	RoomTypeDouble RoomType = "DOUBLE"
)

// ParseRoomType resolves a case-insensitive room type label.
func ParseRoomType(value string) (RoomType, bool) {
	switch RoomType(strings.ToUpper(strings.TrimSpace(value))) {
	case RoomTypeSingle:
		return RoomTypeSingle, true
	case RoomTypeDouble:
		return RoomTypeDouble, true
	}
	return "", false
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending  BookingStatus = "PENDING"
	BookingAccepted BookingStatus = "ACCEPTED"
	BookingRejected BookingStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed out of s.
func (s BookingStatus) Terminal() bool {
	return s == BookingAccepted || s == BookingRejected
}

// Property is a listing owned by a single homeowner.
type Property struct {
	ID          string
	OwnerID     string
	Address     string
	City        string
	Description string
	RoomIDs     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasRoom reports whether roomID belongs to the property.
func (p Property) HasRoom(roomID string) bool {
	return slices.Contains(p.RoomIDs, roomID)
}

// Room is a rentable unit of a property.
type Room struct {
	ID            string
	PropertyID    string
	OwnerID       string
	City          string
	Type          RoomType
	MonthlyRent   float64
	Amenities     []string
	AvailableFrom scheduler.Date
	AvailableTo   scheduler.Date
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Availability returns the inclusive window during which the room can be booked.
func (r Room) Availability() scheduler.Window {
	return scheduler.NewWindow(r.AvailableFrom, r.AvailableTo)
}

// Booking is a student's request to occupy a room for a window of days.
type Booking struct {
	ID        string
	RoomID    string
	OwnerID   string
	StudentID string
	StartDate scheduler.Date
	EndDate   scheduler.Date
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Window returns the inclusive stay requested by the booking.
func (b Booking) Window() scheduler.Window {
	return scheduler.NewWindow(b.StartDate, b.EndDate)
}

// Role identifies which profile an account carries.
type Role string

const (
	RoleStudent   Role = "student"
	RoleHomeowner Role = "homeowner"
)

// Profile is the role specific part of an account. It is implemented only by
// StudentProfile and HomeownerProfile.
type Profile interface {
	Role() Role
	isProfile()
}

// StudentProfile holds the attributes specific to students.
type StudentProfile struct {
	University    string
	StudentNumber string
}

// Role implements Profile.
func (StudentProfile) Role() Role { return RoleStudent }
func (StudentProfile) isProfile() {}

// HomeownerProfile holds the attributes specific to homeowners.
type HomeownerProfile struct {
	ContactNumber string
}

// Role implements Profile.
func (HomeownerProfile) Role() Role { return RoleHomeowner }
func (HomeownerProfile) isProfile() {}

// Account is a registered user together with its role profile.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Profile      Profile
	CreatedAt    time.Time
}

// Role returns the role carried by the account profile, or "" when none is set.
func (a Account) Role() Role {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.Role()
}

// CityKey normalises a city name for index lookups.
func CityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// EmailKey normalises an email address for uniqueness checks.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CloneProperty returns a deep copy of p.
func CloneProperty(p Property) Property {
	p.RoomIDs = slices.Clone(p.RoomIDs)
	return p
}

// CloneRoom returns a deep copy of r.
func CloneRoom(r Room) Room {
	r.Amenities = slices.Clone(r.Amenities)
	return r
}
