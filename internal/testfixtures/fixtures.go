package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

var (
	accountCounter  uint64
	propertyCounter uint64
	roomCounter     uint64
	bookingCounter  uint64
)

var referenceTime = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ---------------------------- Account fixtures ----------------------------

// AccountFixture is a deterministic account together with its plain password.
type AccountFixture struct {
	ID            string
	Name          string
	Email         string
	Password      string
	Role          persistence.Role
	University    string
	StudentNumber string
	ContactNumber string
	CreatedAt     time.Time
}

// AccountOption configures the generated account fixture.
type AccountOption func(*AccountFixture)

// NewStudentFixture returns a deterministic student account.
func NewStudentFixture(opts ...AccountOption) AccountFixture {
	idx := atomic.AddUint64(&accountCounter, 1)
	fixture := AccountFixture{
		ID:            fmt.Sprintf("stu-%03d", idx),
		Name:          fmt.Sprintf("Student %03d", idx),
		Email:         fmt.Sprintf("student-%03d@example.com", idx),
		Password:      fmt.Sprintf("secret-%03d", idx),
		Role:          persistence.RoleStudent,
		University:    "University of Leeds",
		StudentNumber: fmt.Sprintf("S%05d", idx),
		CreatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// NewHomeownerFixture returns a deterministic homeowner account.
func NewHomeownerFixture(opts ...AccountOption) AccountFixture {
	idx := atomic.AddUint64(&accountCounter, 1)
	fixture := AccountFixture{
		ID:            fmt.Sprintf("own-%03d", idx),
		Name:          fmt.Sprintf("Homeowner %03d", idx),
		Email:         fmt.Sprintf("owner-%03d@example.com", idx),
		Password:      fmt.Sprintf("secret-%03d", idx),
		Role:          persistence.RoleHomeowner,
		ContactNumber: fmt.Sprintf("0113 496 %04d", idx),
		CreatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAccountEmail overrides the generated email address.
func WithAccountEmail(email string) AccountOption {
	return func(f *AccountFixture) {
		f.Email = email
	}
}

// WithAccountPassword overrides the generated password.
func WithAccountPassword(password string) AccountOption {
	return func(f *AccountFixture) {
		f.Password = password
	}
}

// StudentRegistration returns the fixture as a student registration input.
func (f AccountFixture) StudentRegistration() application.StudentRegistration {
	return application.StudentRegistration{
		Name:          f.Name,
		Email:         f.Email,
		Password:      f.Password,
		University:    f.University,
		StudentNumber: f.StudentNumber,
	}
}

// HomeownerRegistration returns the fixture as a homeowner registration input.
func (f AccountFixture) HomeownerRegistration() application.HomeownerRegistration {
	return application.HomeownerRegistration{
		Name:          f.Name,
		Email:         f.Email,
		Password:      f.Password,
		ContactNumber: f.ContactNumber,
	}
}

// Persistence returns the fixture as a stored account using passwordHash.
func (f AccountFixture) Persistence(passwordHash string) persistence.Account {
	var profile persistence.Profile
	switch f.Role {
	case persistence.RoleStudent:
		profile = persistence.StudentProfile{University: f.University, StudentNumber: f.StudentNumber}
	case persistence.RoleHomeowner:
		profile = persistence.HomeownerProfile{ContactNumber: f.ContactNumber}
	}
	return persistence.Account{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		PasswordHash: passwordHash,
		Profile:      profile,
		CreatedAt:    f.CreatedAt,
	}
}

// Principal returns the authenticated principal for the fixture.
func (f AccountFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Name: f.Name, Role: f.Role}
}

// ---------------------------- Property fixtures ---------------------------

// PropertyFixture represents a deterministic property listing.
type PropertyFixture struct {
	ID          string
	OwnerID     string
	Address     string
	City        string
	Description string
	RoomIDs     []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PropertyOption configures the generated property fixture.
type PropertyOption func(*PropertyFixture)

// NewPropertyFixture returns a deterministic property in Leeds.
func NewPropertyFixture(opts ...PropertyOption) PropertyFixture {
	idx := atomic.AddUint64(&propertyCounter, 1)
	fixture := PropertyFixture{
		ID:          fmt.Sprintf("prop-%03d", idx),
		OwnerID:     "own-001",
		Address:     fmt.Sprintf("%d Hyde Park Road", idx),
		City:        "Leeds",
		Description: "Shared house close to campus",
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithPropertyID overrides the generated property id.
func WithPropertyID(id string) PropertyOption {
	return func(f *PropertyFixture) {
		f.ID = id
	}
}

// WithPropertyOwner sets the owning homeowner.
func WithPropertyOwner(ownerID string) PropertyOption {
	return func(f *PropertyFixture) {
		f.OwnerID = ownerID
	}
}

// WithPropertyCity sets the property city.
func WithPropertyCity(city string) PropertyOption {
	return func(f *PropertyFixture) {
		f.City = city
	}
}

// WithPropertyRooms sets the ordered room ids of the property.
func WithPropertyRooms(roomIDs ...string) PropertyOption {
	return func(f *PropertyFixture) {
		f.RoomIDs = append([]string(nil), roomIDs...)
	}
}

// Input returns the fixture as a create-property input.
func (f PropertyFixture) Input() application.PropertyInput {
	return application.PropertyInput{
		Address:     f.Address,
		City:        f.City,
		Description: f.Description,
	}
}

// Persistence returns the fixture as a stored property.
func (f PropertyFixture) Persistence() persistence.Property {
	return persistence.Property{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Address:     f.Address,
		City:        f.City,
		Description: f.Description,
		RoomIDs:     append([]string(nil), f.RoomIDs...),
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ------------------------------ Room fixtures -----------------------------

// RoomFixture represents a deterministic rentable room.
type RoomFixture struct {
	ID            string
	PropertyID    string
	OwnerID       string
	City          string
	Type          persistence.RoomType
	MonthlyRent   float64
	Amenities     []string
	AvailableFrom scheduler.Date
	AvailableTo   scheduler.Date
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a single room available for the autumn term.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:            fmt.Sprintf("room-%03d", idx),
		PropertyID:    "prop-001",
		OwnerID:       "own-001",
		City:          "Leeds",
		Type:          persistence.RoomTypeSingle,
		MonthlyRent:   450,
		Amenities:     []string{"desk", "wifi"},
		AvailableFrom: scheduler.NewDate(2025, time.September, 1),
		AvailableTo:   scheduler.NewDate(2025, time.December, 20),
		CreatedAt:     referenceTime,
		UpdatedAt:     referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room id.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomProperty places the room in a property owned by ownerID.
func WithRoomProperty(propertyID, ownerID, city string) RoomOption {
	return func(f *RoomFixture) {
		f.PropertyID = propertyID
		f.OwnerID = ownerID
		f.City = city
	}
}

// WithRoomType sets the room type.
func WithRoomType(roomType persistence.RoomType) RoomOption {
	return func(f *RoomFixture) {
		f.Type = roomType
	}
}

// WithRoomRent sets the monthly rent.
func WithRoomRent(rent float64) RoomOption {
	return func(f *RoomFixture) {
		f.MonthlyRent = rent
	}
}

// WithRoomAvailability sets the inclusive availability window.
func WithRoomAvailability(from, to scheduler.Date) RoomOption {
	return func(f *RoomFixture) {
		f.AvailableFrom = from
		f.AvailableTo = to
	}
}

// Input returns the fixture as an add-room input.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Type:          string(f.Type),
		MonthlyRent:   f.MonthlyRent,
		Amenities:     append([]string(nil), f.Amenities...),
		AvailableFrom: f.AvailableFrom,
		AvailableTo:   f.AvailableTo,
	}
}

// Persistence returns the fixture as a stored room.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:            f.ID,
		PropertyID:    f.PropertyID,
		OwnerID:       f.OwnerID,
		City:          f.City,
		Type:          f.Type,
		MonthlyRent:   f.MonthlyRent,
		Amenities:     append([]string(nil), f.Amenities...),
		AvailableFrom: f.AvailableFrom,
		AvailableTo:   f.AvailableTo,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking.
type BookingFixture struct {
	ID        string
	RoomID    string
	OwnerID   string
	StudentID string
	StartDate scheduler.Date
	EndDate   scheduler.Date
	Status    persistence.BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a PENDING booking for September.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	fixture := BookingFixture{
		ID:        fmt.Sprintf("book-%03d", idx),
		RoomID:    "room-001",
		OwnerID:   "own-001",
		StudentID: "stu-001",
		StartDate: scheduler.NewDate(2025, time.September, 1),
		EndDate:   scheduler.NewDate(2025, time.September, 30),
		Status:    persistence.BookingPending,
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking id.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingRoom sets the booked room and its owner.
func WithBookingRoom(roomID, ownerID string) BookingOption {
	return func(f *BookingFixture) {
		f.RoomID = roomID
		f.OwnerID = ownerID
	}
}

// WithBookingStudent sets the requesting student.
func WithBookingStudent(studentID string) BookingOption {
	return func(f *BookingFixture) {
		f.StudentID = studentID
	}
}

// WithBookingStay sets the inclusive stay.
func WithBookingStay(start, end scheduler.Date) BookingOption {
	return func(f *BookingFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// WithBookingStatus sets the lifecycle state.
func WithBookingStatus(status persistence.BookingStatus) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// Request returns the fixture as a booking request.
func (f BookingFixture) Request() application.BookingRequest {
	return application.BookingRequest{
		StudentID: f.StudentID,
		RoomID:    f.RoomID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
	}
}

// Persistence returns the fixture as a stored booking.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		ID:        f.ID,
		RoomID:    f.RoomID,
		OwnerID:   f.OwnerID,
		StudentID: f.StudentID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		Status:    f.Status,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
