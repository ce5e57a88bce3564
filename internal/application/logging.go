package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/student-rentals/internal/logging"
	"github.com/example/student-rentals/internal/persistence"
)

// Error kinds reported under the error_kind log key.
const (
	KindUnauthorized        = "unauthorized"
	KindNotFound            = "not_found"
	KindAlreadyExists       = "already_exists"
	KindInvalidCredentials  = "invalid_credentials"
	KindInvalidToken        = "invalid_token"
	KindBookingConflict     = "booking_conflict"
	KindOutsideAvailability = "outside_availability"
	KindDecisionClosed      = "decision_closed"
	KindValidation          = "validation"
	KindUnexpected          = "unexpected"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// serviceLogger prefers the request scoped logger carried by ctx so service
// lines share the request id of the HTTP layer.
func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = defaultLogger(base)
	}

	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "service", serviceName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	return logger.With(append(pairs, attrs...)...)
}

// accountAttrs identifies the acting account.
func accountAttrs(principal Principal) []any {
	return []any{"user_id", principal.UserID, "role", string(principal.Role)}
}

// bookingAttrs describes the state of a booking. Identifiers are left to the
// operation logger.
func bookingAttrs(booking persistence.Booking) []any {
	return []any{
		"stay", booking.Window().String(),
		"days", booking.Window().Days(),
		"status", string(booking.Status),
	}
}

// roomAttrs describes a room listing.
func roomAttrs(room persistence.Room) []any {
	return []any{
		"city", room.City,
		"monthly_rent", room.MonthlyRent,
		"availability", room.Availability().String(),
	}
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
// Booking validation failures get their own kinds so they can be told apart
// from ordinary input errors.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrInvalidToken):
		return KindInvalidToken
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		switch {
		case vErr.has(fieldAvailability):
			return KindBookingConflict
		case vErr.has(fieldStay):
			return KindOutsideAvailability
		case vErr.has(fieldStatus):
			return KindDecisionClosed
		}
		return KindValidation
	}

	return KindUnexpected
}
