package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/example/student-rentals/internal/events"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/persistence/memory"
	"github.com/example/student-rentals/internal/scheduler"
)

var testNow = time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// sequentialIDs yields "<prefix>-1", "<prefix>-2", ... per prefix.
func sequentialIDs() func(prefix string) string {
	var mu sync.Mutex
	counters := map[string]int{}
	return func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		counters[prefix]++
		return fmt.Sprintf("%s-%d", prefix, counters[prefix])
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(value string) scheduler.Date {
	return scheduler.MustParseDate(value)
}

func datePtr(value string) *scheduler.Date {
	d := scheduler.MustParseDate(value)
	return &d
}

func strPtr(value string) *string { return &value }

func floatPtr(value float64) *float64 { return &value }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, event := range p.events {
		out = append(out, event.Type)
	}
	return out
}

// flakyCatalog fails selected writes of an otherwise working catalog.
type flakyCatalog struct {
	*memory.Catalog
	saveRoomErr     error
	savePropertyErr error
}

func (c *flakyCatalog) SaveRoom(ctx context.Context, city string, room persistence.Room) error {
	if c.saveRoomErr != nil {
		return c.saveRoomErr
	}
	return c.Catalog.SaveRoom(ctx, city, room)
}

func (c *flakyCatalog) SaveProperty(ctx context.Context, property persistence.Property) error {
	if c.savePropertyErr != nil {
		return c.savePropertyErr
	}
	return c.Catalog.SaveProperty(ctx, property)
}

type rentalsHarness struct {
	catalog      *memory.Catalog
	reservations *memory.Reservations
	publisher    *recordingPublisher
	listings     *ListingService
	bookings     *BookingService
	search       *SearchService
}

func newRentalsHarness() *rentalsHarness {
	catalog := memory.NewCatalog()
	reservations := memory.NewReservations()
	publisher := &recordingPublisher{}
	nextID := sequentialIDs()
	logger := discardLogger()
	return &rentalsHarness{
		catalog:      catalog,
		reservations: reservations,
		publisher:    publisher,
		listings:     NewListingServiceWithLogger(catalog, nextID, fixedNow, logger),
		bookings:     NewBookingServiceWithLogger(catalog, reservations, publisher, nextID, fixedNow, logger),
		search:       NewSearchServiceWithLogger(catalog, logger),
	}
}

func (h *rentalsHarness) property(ownerID, city string) persistence.Property {
	property, err := h.listings.CreateProperty(context.Background(), CreatePropertyParams{
		OwnerID: ownerID,
		Input:   PropertyInput{Address: "1 High Street", City: city},
	})
	if err != nil {
		panic(err)
	}
	return property
}

func (h *rentalsHarness) room(ownerID, propertyID string, rent float64, from, to string) persistence.Room {
	room, err := h.listings.AddRoom(context.Background(), AddRoomParams{
		OwnerID:    ownerID,
		PropertyID: propertyID,
		Input: RoomInput{
			Type:          "SINGLE",
			MonthlyRent:   rent,
			AvailableFrom: date(from),
			AvailableTo:   date(to),
		},
	})
	if err != nil {
		panic(err)
	}
	return room
}

func (h *rentalsHarness) request(studentID, roomID, start, end string) (persistence.Booking, error) {
	return h.bookings.RequestBooking(context.Background(), BookingRequest{
		StudentID: studentID,
		RoomID:    roomID,
		StartDate: date(start),
		EndDate:   date(end),
	})
}

func (h *rentalsHarness) respond(ownerID, bookingID string, decision persistence.BookingStatus) (persistence.Booking, error) {
	return h.bookings.RespondToRequest(context.Background(), RespondParams{
		OwnerID:   ownerID,
		BookingID: bookingID,
		Decision:  decision,
	})
}
