package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
)

type bookingService interface {
	RequestBooking(ctx context.Context, req application.BookingRequest) (persistence.Booking, error)
	RespondToRequest(ctx context.Context, params application.RespondParams) (persistence.Booking, error)
	PendingRequestsForOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error)
	BookingsForOwner(ctx context.Context, ownerID string) ([]persistence.Booking, error)
	BookingsForStudent(ctx context.Context, studentID string) ([]persistence.Booking, error)
}

// BookingHandler serves booking requests and owner decisions.
type BookingHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return requestLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Request files a PENDING booking for the authenticated student.
func (h *BookingHandler) Request(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Request", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	req.StudentID = principal.UserID

	logger := h.log(r.Context(), "Request", "principal_id", principal.UserID, "room_id", req.RoomID)
	booking, err := h.service.RequestBooking(r.Context(), req)
	if err != nil {
		logger.WarnContext(r.Context(), "booking request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

// Respond records the owner's decision on a pending booking.
func (h *BookingHandler) Respond(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	bookingID := ps.ByName("bookingID")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Respond", "principal_id", principal.UserID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode decision", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Respond", "principal_id", principal.UserID, "booking_id", bookingID)
	booking, err := h.service.RespondToRequest(r.Context(), application.RespondParams{
		OwnerID:   principal.UserID,
		BookingID: bookingID,
		Decision:  persistence.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Decision))),
	})
	if err != nil {
		logger.WarnContext(r.Context(), "booking decision failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("status", booking.Status).InfoContext(r.Context(), "booking decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

// List returns the caller's bookings: requests made by a student, or requests
// received by a homeowner. Homeowners may pass status=pending to see only the
// requests awaiting a decision; any other status filter is rejected.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	pendingOnly := strings.EqualFold(status, string(persistence.BookingPending))
	if status != "" && !pendingOnly {
		h.log(r.Context(), "List", "error_kind", "validation").WarnContext(r.Context(), "unsupported status filter", "status", status)
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   statusMessage(http.StatusUnprocessableEntity),
			Errors:    map[string]string{"status": "must be pending"},
		})
		return
	}

	var find func(context.Context, string) ([]persistence.Booking, error)
	switch {
	case principal.Role == persistence.RoleHomeowner && pendingOnly:
		find = h.service.PendingRequestsForOwner
	case principal.Role == persistence.RoleHomeowner:
		find = h.service.BookingsForOwner
	case principal.Role == persistence.RoleStudent && !pendingOnly:
		find = h.service.BookingsForStudent
	default:
		h.responder.writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{
			ErrorCode: "WRONG_ROLE",
			Message:   errWrongRole.Error(),
		})
		return
	}
	h.list(w, r, principal, find)
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request, principal application.Principal, find func(context.Context, string) ([]persistence.Booking, error)) {
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)
	bookings, err := find(r.Context(), principal.UserID)
	if err != nil {
		logger.WarnContext(r.Context(), "booking list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(bookings)).DebugContext(r.Context(), "bookings listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

type bookingResponse struct {
	Booking bookingDTO `json:"booking"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	OwnerID   string `json:"owner_id"`
	StudentID string `json:"student_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toBookingDTO(booking persistence.Booking) bookingDTO {
	return bookingDTO{
		ID:        booking.ID,
		RoomID:    booking.RoomID,
		OwnerID:   booking.OwnerID,
		StudentID: booking.StudentID,
		StartDate: booking.StartDate.String(),
		EndDate:   booking.EndDate.String(),
		Status:    string(booking.Status),
		CreatedAt: booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toBookingDTOs(bookings []persistence.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}
