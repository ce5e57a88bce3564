package testfixtures

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/events"
	"github.com/example/student-rentals/internal/persistence"
)

// CheapArgon2idParams keeps password hashing fast enough for unit tests.
var CheapArgon2idParams = application.Argon2idParams{
	Memory:      64,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewListingService builds a listing service over catalog.
func (f *ServiceFactory) NewListingService(catalog persistence.CatalogStore) *application.ListingService {
	return application.NewListingServiceWithLogger(catalog, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// BookingServiceDeps captures dependencies for constructing a booking service.
type BookingServiceDeps struct {
	Rooms        application.RoomLookup
	Reservations persistence.ReservationStore
	Publisher    events.Publisher
}

// NewBookingService builds a booking service. A nil publisher discards events.
func (f *ServiceFactory) NewBookingService(deps BookingServiceDeps) *application.BookingService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop{}
	}
	return application.NewBookingServiceWithLogger(
		deps.Rooms,
		deps.Reservations,
		publisher,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewAccountService builds an account service hashing with CheapArgon2idParams.
func (f *ServiceFactory) NewAccountService(accounts persistence.AccountStore) *application.AccountService {
	return application.NewAccountServiceWithLogger(
		accounts,
		application.Argon2idHasher(CheapArgon2idParams),
		application.VerifyPassword,
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewSearchService builds a search service over rooms.
func (f *ServiceFactory) NewSearchService(rooms application.RoomFinder) *application.SearchService {
	return application.NewSearchServiceWithLogger(rooms, f.Logger)
}

// NewTokenService builds a token service reading time from the factory clock,
// so tests expire tokens with Clock.Advance.
func (f *ServiceFactory) NewTokenService(secret string, ttl time.Duration) *application.TokenService {
	return application.NewTokenServiceWithLogger(secret, ttl, f.Clock.NowFunc(), f.Logger)
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
	Err    error
}

// Publish implements events.Publisher.
func (p *RecordingPublisher) Publish(_ context.Context, event events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

// Events returns a copy of the recorded events in publish order.
func (p *RecordingPublisher) Events() []events.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.BookingEvent(nil), p.events...)
}
