package application

import (
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

// Principal represents the authenticated account invoking a service method.
type Principal struct {
	UserID string
	Name   string
	Role   persistence.Role
}

// IsStudent reports whether the principal acts as a student.
func (p Principal) IsStudent() bool { return p.Role == persistence.RoleStudent }

// IsHomeowner reports whether the principal acts as a homeowner.
func (p Principal) IsHomeowner() bool { return p.Role == persistence.RoleHomeowner }

// PropertyInput captures caller provided property fields.
type PropertyInput struct {
	Address     string `json:"address" validate:"notblank"`
	City        string `json:"city" validate:"notblank"`
	Description string `json:"description"`
}

// CreatePropertyParams wraps the data required to create a property.
type CreatePropertyParams struct {
	OwnerID string
	Input   PropertyInput
}

// PropertyUpdate lists the property fields to change. Nil or blank values keep
// the stored value.
type PropertyUpdate struct {
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Description *string `json:"description"`
}

// UpdatePropertyParams wraps the data required to update a property.
type UpdatePropertyParams struct {
	OwnerID    string
	PropertyID string
	Update     PropertyUpdate
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Type          string         `json:"type" validate:"required,room_type"`
	MonthlyRent   float64        `json:"monthly_rent" validate:"finite,gt=0"`
	Amenities     []string       `json:"amenities"`
	AvailableFrom scheduler.Date `json:"available_from" validate:"required"`
	AvailableTo   scheduler.Date `json:"available_to" validate:"required"`
}

// AddRoomParams wraps the data required to add a room to a property.
type AddRoomParams struct {
	OwnerID    string
	PropertyID string
	Input      RoomInput
}

// RoomUpdate lists the room fields to change. Nil fields keep the stored value;
// a non-nil empty Amenities clears the set.
type RoomUpdate struct {
	Type          *string         `json:"type" validate:"omitnil,room_type"`
	MonthlyRent   *float64        `json:"monthly_rent" validate:"omitnil,finite,gt=0"`
	Amenities     *[]string       `json:"amenities"`
	AvailableFrom *scheduler.Date `json:"available_from"`
	AvailableTo   *scheduler.Date `json:"available_to"`
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	OwnerID    string
	PropertyID string
	RoomID     string
	Update     RoomUpdate
}

// BookingRequest captures a student's request to occupy a room.
type BookingRequest struct {
	StudentID string         `json:"student_id" validate:"notblank"`
	RoomID    string         `json:"room_id" validate:"notblank"`
	StartDate scheduler.Date `json:"start_date" validate:"required"`
	EndDate   scheduler.Date `json:"end_date" validate:"required"`
}

// RespondParams captures an owner's decision on a pending booking.
type RespondParams struct {
	OwnerID   string
	BookingID string
	Decision  persistence.BookingStatus
}

// StudentRegistration captures the fields required to register a student.
type StudentRegistration struct {
	Name          string `json:"name" validate:"notblank"`
	Email         string `json:"email" validate:"notblank,email"`
	Password      string `json:"password" validate:"notblank"`
	University    string `json:"university" validate:"notblank"`
	StudentNumber string `json:"student_number" validate:"notblank"`
}

// HomeownerRegistration captures the fields required to register a homeowner.
type HomeownerRegistration struct {
	Name          string `json:"name" validate:"notblank"`
	Email         string `json:"email" validate:"notblank,email"`
	Password      string `json:"password" validate:"notblank"`
	ContactNumber string `json:"contact_number" validate:"notblank"`
}

// SearchCriteria filters the room catalog. Zero values mean "any".
type SearchCriteria struct {
	City      string         `json:"city"`
	MinRent   *float64       `json:"min_rent" validate:"omitnil,finite,gte=0"`
	MaxRent   *float64       `json:"max_rent" validate:"omitnil,finite,gte=0"`
	Type      string         `json:"type" validate:"omitempty,room_type"`
	StartDate scheduler.Date `json:"start_date"`
	EndDate   scheduler.Date `json:"end_date"`
}
