package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/config"
	"github.com/example/student-rentals/internal/events"
	httptransport "github.com/example/student-rentals/internal/http"
	"github.com/example/student-rentals/internal/ids"
	"github.com/example/student-rentals/internal/logging"
	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/persistence/memory"
	"github.com/example/student-rentals/internal/persistence/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise service", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Error("failed to release resources", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("rentals API listening", "addr", server.Addr, "storage", cfg.Storage, "events", cfg.Kafka.Enabled(), "tokens", cfg.Tokens.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	catalog      persistence.CatalogStore
	reservations persistence.ReservationStore
	accounts     persistence.AccountStore
}

// app holds the wired HTTP handler and the resources it must release.
type app struct {
	handler http.Handler
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (a *app, err error) {
	a = &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
			a = nil
		}
	}()

	var s stores
	switch cfg.Storage {
	case config.StorageMemory:
		s = stores{
			catalog:      memory.NewCatalog(),
			reservations: memory.NewReservations(),
			accounts:     memory.NewAccounts(),
		}
	case config.StorageSQLite:
		storage, openErr := sqlite.Open(cfg.SQLiteDSN)
		if openErr != nil {
			return a, fmt.Errorf("open storage: %w", openErr)
		}
		a.closers = append(a.closers, storage.Close)
		if err = storage.Migrate(ctx); err != nil {
			return a, fmt.Errorf("apply migrations: %w", err)
		}
		s = stores{catalog: storage, reservations: storage, accounts: storage}
	default:
		return a, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		kafka, kafkaErr := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger)
		if kafkaErr != nil {
			return a, fmt.Errorf("create event publisher: %w", kafkaErr)
		}
		a.closers = append(a.closers, kafka.Close)
		publisher = kafka
	}

	now := time.Now
	accountService := application.NewAccountServiceWithLogger(s.accounts, nil, nil, ids.NewID, now, logger)
	listingService := application.NewListingServiceWithLogger(s.catalog, ids.NewID, now, logger)
	bookingService := application.NewBookingServiceWithLogger(s.catalog, s.reservations, publisher, ids.NewID, now, logger)
	searchService := application.NewSearchServiceWithLogger(s.catalog, logger)

	routes := httptransport.RouterConfig{
		Accounts:      httptransport.NewAccountHandler(accountService, logger),
		Listings:      httptransport.NewListingHandler(listingService, logger),
		Bookings:      httptransport.NewBookingHandler(bookingService, logger),
		Search:        httptransport.NewSearchHandler(searchService, logger),
		Authenticator: accountService,
		Logger:        logger,
		Middleware:    []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	}
	if cfg.Tokens.Enabled() {
		tokenService := application.NewTokenServiceWithLogger(cfg.Tokens.Secret, cfg.Tokens.TTL, now, logger)
		routes.Tokens = httptransport.NewTokenHandler(tokenService, logger)
		routes.TokenVerifier = tokenService
	}

	a.handler = httptransport.NewRouter(routes)
	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
