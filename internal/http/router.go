package http

import (
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/persistence"
)

// RouterConfig bundles the handlers and collaborators served by NewRouter.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Accounts      *AccountHandler
	Listings      *ListingHandler
	Bookings      *BookingHandler
	Search        *SearchHandler
	Tokens        *TokenHandler
	Authenticator Authenticator
	TokenVerifier TokenVerifier
	Logger        *slog.Logger
	Middleware    []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := httprouter.New()
	responder := newResponder(cfg.Logger)

	anyAccount := RequireAccount(cfg.Authenticator, cfg.TokenVerifier, cfg.Logger)
	student := RequireAccount(cfg.Authenticator, cfg.TokenVerifier, cfg.Logger, persistence.RoleStudent)
	homeowner := RequireAccount(cfg.Authenticator, cfg.TokenVerifier, cfg.Logger, persistence.RoleHomeowner)
	// Tokens are minted from a password only, so a token cannot renew itself.
	passwordOnly := RequireAccount(cfg.Authenticator, nil, cfg.Logger)

	if cfg.Accounts != nil {
		router.POST("/students", cfg.Accounts.RegisterStudent)
		router.POST("/homeowners", cfg.Accounts.RegisterHomeowner)
		router.GET("/me", anyAccount(cfg.Accounts.Me))
	}

	if cfg.Tokens != nil {
		router.POST("/tokens", passwordOnly(cfg.Tokens.Issue))
	}

	if cfg.Search != nil {
		router.GET("/rooms", cfg.Search.Search)
	}

	if cfg.Listings != nil {
		router.GET("/properties", homeowner(cfg.Listings.ListProperties))
		router.POST("/properties", homeowner(cfg.Listings.CreateProperty))
		router.PATCH("/properties/:propertyID", homeowner(cfg.Listings.UpdateProperty))
		router.DELETE("/properties/:propertyID", homeowner(cfg.Listings.RemoveProperty))
		router.GET("/properties/:propertyID/rooms", homeowner(cfg.Listings.ListRooms))
		router.POST("/properties/:propertyID/rooms", homeowner(cfg.Listings.AddRoom))
		router.PATCH("/properties/:propertyID/rooms/:roomID", homeowner(cfg.Listings.UpdateRoom))
		router.DELETE("/properties/:propertyID/rooms/:roomID", homeowner(cfg.Listings.RemoveRoom))
	}

	if cfg.Bookings != nil {
		router.POST("/bookings", student(cfg.Bookings.Request))
		router.GET("/bookings", anyAccount(cfg.Bookings.List))
		router.POST("/bookings/:bookingID/decision", homeowner(cfg.Bookings.Respond))
	}

	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{Message: statusMessage(http.StatusNotFound)})
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, recovered any) {
		requestLogger(r.Context(), cfg.Logger, "Router", "panic").ErrorContext(r.Context(), "handler panicked", "panic", recovered)
		responder.writeJSON(r.Context(), w, http.StatusInternalServerError, errorResponse{Message: statusMessage(http.StatusInternalServerError)})
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}
	return handler
}
