package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/example/student-rentals/internal/application"
	"github.com/example/student-rentals/internal/persistence"
)

type listingService interface {
	CreateProperty(ctx context.Context, params application.CreatePropertyParams) (persistence.Property, error)
	UpdateProperty(ctx context.Context, params application.UpdatePropertyParams) (persistence.Property, error)
	RemoveProperty(ctx context.Context, ownerID, propertyID string) error
	ListProperties(ctx context.Context, ownerID string) ([]persistence.Property, error)
	AddRoom(ctx context.Context, params application.AddRoomParams) (persistence.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (persistence.Room, error)
	RemoveRoom(ctx context.Context, ownerID, propertyID, roomID string) error
	ListRooms(ctx context.Context, ownerID, propertyID string) ([]persistence.Room, error)
}

// ListingHandler serves a homeowner's properties and rooms.
type ListingHandler struct {
	service   listingService
	responder responder
	logger    *slog.Logger
}

func NewListingHandler(service listingService, logger *slog.Logger) *ListingHandler {
	base := defaultLogger(logger)
	return &ListingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ListingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return requestLogger(ctx, h.logger, "ListingHandler", operation, attrs...)
}

func (h *ListingHandler) fail(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	logger.WarnContext(r.Context(), msg, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(r.Context(), w, err)
}

func (h *ListingHandler) badBody(w http.ResponseWriter, r *http.Request, operation string, err error) {
	h.log(r.Context(), operation, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode request body", "error", err)
	h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
}

func (h *ListingHandler) ListProperties(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListProperties", "principal_id", principal.UserID)

	properties, err := h.service.ListProperties(r.Context(), principal.UserID)
	if err != nil {
		h.fail(w, r, logger, "property list failed", err)
		return
	}

	logger.With("result_count", len(properties)).DebugContext(r.Context(), "properties listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPropertiesResponse{Properties: toPropertyDTOs(properties)})
}

func (h *ListingHandler) CreateProperty(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())

	var req application.PropertyInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badBody(w, r, "CreateProperty", err)
		return
	}

	logger := h.log(r.Context(), "CreateProperty", "principal_id", principal.UserID)
	property, err := h.service.CreateProperty(r.Context(), application.CreatePropertyParams{
		OwnerID: principal.UserID,
		Input:   req,
	})
	if err != nil {
		h.fail(w, r, logger, "property creation failed", err)
		return
	}

	logger.With("property_id", property.ID).InfoContext(r.Context(), "property created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, propertyResponse{Property: toPropertyDTO(property)})
}

func (h *ListingHandler) UpdateProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID := ps.ByName("propertyID")

	var req application.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badBody(w, r, "UpdateProperty", err)
		return
	}

	logger := h.log(r.Context(), "UpdateProperty", "principal_id", principal.UserID, "property_id", propertyID)
	property, err := h.service.UpdateProperty(r.Context(), application.UpdatePropertyParams{
		OwnerID:    principal.UserID,
		PropertyID: propertyID,
		Update:     req,
	})
	if err != nil {
		h.fail(w, r, logger, "property update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "property updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, propertyResponse{Property: toPropertyDTO(property)})
}

func (h *ListingHandler) RemoveProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID := ps.ByName("propertyID")
	logger := h.log(r.Context(), "RemoveProperty", "principal_id", principal.UserID, "property_id", propertyID)

	if err := h.service.RemoveProperty(r.Context(), principal.UserID, propertyID); err != nil {
		h.fail(w, r, logger, "property removal failed", err)
		return
	}

	logger.InfoContext(r.Context(), "property removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ListingHandler) ListRooms(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID := ps.ByName("propertyID")
	logger := h.log(r.Context(), "ListRooms", "principal_id", principal.UserID, "property_id", propertyID)

	rooms, err := h.service.ListRooms(r.Context(), principal.UserID, propertyID)
	if err != nil {
		h.fail(w, r, logger, "room list failed", err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func (h *ListingHandler) AddRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID := ps.ByName("propertyID")

	var req application.RoomInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badBody(w, r, "AddRoom", err)
		return
	}

	logger := h.log(r.Context(), "AddRoom", "principal_id", principal.UserID, "property_id", propertyID)
	room, err := h.service.AddRoom(r.Context(), application.AddRoomParams{
		OwnerID:    principal.UserID,
		PropertyID: propertyID,
		Input:      req,
	})
	if err != nil {
		h.fail(w, r, logger, "room creation failed", err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room added")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *ListingHandler) UpdateRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID, roomID := ps.ByName("propertyID"), ps.ByName("roomID")

	var req application.RoomUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badBody(w, r, "UpdateRoom", err)
		return
	}

	logger := h.log(r.Context(), "UpdateRoom", "principal_id", principal.UserID, "property_id", propertyID, "room_id", roomID)
	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		OwnerID:    principal.UserID,
		PropertyID: propertyID,
		RoomID:     roomID,
		Update:     req,
	})
	if err != nil {
		h.fail(w, r, logger, "room update failed", err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *ListingHandler) RemoveRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, _ := PrincipalFromContext(r.Context())
	propertyID, roomID := ps.ByName("propertyID"), ps.ByName("roomID")
	logger := h.log(r.Context(), "RemoveRoom", "principal_id", principal.UserID, "property_id", propertyID, "room_id", roomID)

	if err := h.service.RemoveRoom(r.Context(), principal.UserID, propertyID, roomID); err != nil {
		h.fail(w, r, logger, "room removal failed", err)
		return
	}

	logger.InfoContext(r.Context(), "room removed")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type propertyResponse struct {
	Property propertyDTO `json:"property"`
}

type listPropertiesResponse struct {
	Properties []propertyDTO `json:"properties"`
}

type propertyDTO struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Address     string   `json:"address"`
	City        string   `json:"city"`
	Description string   `json:"description"`
	RoomIDs     []string `json:"room_ids"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func toPropertyDTO(property persistence.Property) propertyDTO {
	roomIDs := property.RoomIDs
	if roomIDs == nil {
		roomIDs = []string{}
	}
	return propertyDTO{
		ID:          property.ID,
		OwnerID:     property.OwnerID,
		Address:     property.Address,
		City:        property.City,
		Description: property.Description,
		RoomIDs:     roomIDs,
		CreatedAt:   property.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   property.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toPropertyDTOs(properties []persistence.Property) []propertyDTO {
	out := make([]propertyDTO, 0, len(properties))
	for _, property := range properties {
		out = append(out, toPropertyDTO(property))
	}
	return out
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID            string   `json:"id"`
	PropertyID    string   `json:"property_id"`
	OwnerID       string   `json:"owner_id"`
	City          string   `json:"city"`
	Type          string   `json:"type"`
	MonthlyRent   float64  `json:"monthly_rent"`
	Amenities     []string `json:"amenities"`
	AvailableFrom string   `json:"available_from"`
	AvailableTo   string   `json:"available_to"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	amenities := room.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return roomDTO{
		ID:            room.ID,
		PropertyID:    room.PropertyID,
		OwnerID:       room.OwnerID,
		City:          room.City,
		Type:          string(room.Type),
		MonthlyRent:   room.MonthlyRent,
		Amenities:     amenities,
		AvailableFrom: room.AvailableFrom.String(),
		AvailableTo:   room.AvailableTo.String(),
		CreatedAt:     room.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     room.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
