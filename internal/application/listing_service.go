package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/example/student-rentals/internal/ids"
	"github.com/example/student-rentals/internal/persistence"
)

// ListingService lets homeowners publish and maintain properties and rooms.
// Mutations on one property are serialised; different properties proceed in
// parallel.
type ListingService struct {
	catalog     persistence.CatalogStore
	idGenerator func(prefix string) string
	now         func() time.Time
	logger      *slog.Logger
	locks       keyedMutex
}

// NewListingService constructs a listing service with the provided dependencies.
func NewListingService(catalog persistence.CatalogStore, idGenerator func(prefix string) string, now func() time.Time) *ListingService {
	return NewListingServiceWithLogger(catalog, idGenerator, now, nil)
}

// NewListingServiceWithLogger constructs a listing service with a specified logger.
func NewListingServiceWithLogger(catalog persistence.CatalogStore, idGenerator func(prefix string) string, now func() time.Time, logger *slog.Logger) *ListingService {
	if idGenerator == nil {
		idGenerator = ids.NewID
	}
	if now == nil {
		now = time.Now
	}
	return &ListingService{catalog: catalog, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ListingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ListingService", operation, attrs...)
}

func (s *ListingService) ready() error {
	if s == nil {
		return fmt.Errorf("ListingService is nil")
	}
	if s.catalog == nil {
		return fmt.Errorf("catalog store not configured")
	}
	return nil
}

// CreateProperty registers a new property for the owner.
func (s *ListingService) CreateProperty(ctx context.Context, params CreatePropertyParams) (property persistence.Property, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "CreateProperty",
		"owner_id", params.OwnerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create property", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("property_id", property.ID).InfoContext(ctx, "property created")
	}()

	vErr := validateInput(params.Input)
	requireID(vErr, fieldOwnerID, params.OwnerID)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	property = persistence.Property{
		ID:          s.idGenerator("prop"),
		OwnerID:     strings.TrimSpace(params.OwnerID),
		Address:     strings.TrimSpace(params.Input.Address),
		City:        strings.TrimSpace(params.Input.City),
		Description: strings.TrimSpace(params.Input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err = s.catalog.SaveProperty(ctx, property); err != nil {
		err = mapStoreError(err, "property", property.ID)
		property = persistence.Property{}
	}
	return
}

// UpdateProperty applies the provided, non-blank fields. The city can only
// change while the property has no rooms.
func (s *ListingService) UpdateProperty(ctx context.Context, params UpdatePropertyParams) (property persistence.Property, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateProperty",
		"owner_id", params.OwnerID,
		"property_id", params.PropertyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update property", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "property updated")
	}()

	release := s.locks.Lock(params.PropertyID)
	defer release()

	var existing persistence.Property
	existing, err = s.ownedProperty(ctx, params.OwnerID, params.PropertyID)
	if err != nil {
		return
	}

	updated := persistence.CloneProperty(existing)
	if address, ok := providedString(params.Update.Address); ok {
		updated.Address = address
	}
	if city, ok := providedString(params.Update.City); ok && city != existing.City {
		if len(existing.RoomIDs) > 0 {
			err = newValidationError(fieldCity, "cannot change city while the property has rooms")
			return
		}
		updated.City = city
	}
	if description, ok := providedString(params.Update.Description); ok {
		updated.Description = description
	}
	updated.UpdatedAt = s.now()

	if err = s.catalog.SaveProperty(ctx, updated); err != nil {
		err = mapStoreError(err, "property", updated.ID)
		return
	}
	property = updated
	return
}

// RemoveProperty deletes every room of the property from the catalog and then
// the property itself.
func (s *ListingService) RemoveProperty(ctx context.Context, ownerID, propertyID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "RemoveProperty",
		"owner_id", ownerID,
		"property_id", propertyID,
	)

	release := s.locks.Lock(propertyID)
	defer release()

	property, err := s.ownedProperty(ctx, ownerID, propertyID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to remove property", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	for _, roomID := range property.RoomIDs {
		if err := s.catalog.DeleteRoom(ctx, property.City, roomID); err != nil {
			logger.ErrorContext(ctx, "failed to remove room of property", "room_id", roomID, "error", err, "error_kind", ErrorKind(err))
			return err
		}
	}
	if err := s.catalog.DeleteProperty(ctx, property.OwnerID, property.ID); err != nil {
		logger.ErrorContext(ctx, "failed to remove property", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.With("room_count", len(property.RoomIDs)).InfoContext(ctx, "property removed")
	return nil
}

// AddRoom creates a room under the property. The room inherits the property's
// owner and city.
func (s *ListingService) AddRoom(ctx context.Context, params AddRoomParams) (room persistence.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "AddRoom",
		"owner_id", params.OwnerID,
		"property_id", params.PropertyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).With(roomAttrs(room)...).InfoContext(ctx, "room added")
	}()

	release := s.locks.Lock(params.PropertyID)
	defer release()

	var property persistence.Property
	property, err = s.ownedProperty(ctx, params.OwnerID, params.PropertyID)
	if err != nil {
		return
	}

	input := params.Input
	vErr := validateInput(input)
	if !input.AvailableFrom.IsZero() && !input.AvailableTo.IsZero() && input.AvailableTo.Before(input.AvailableFrom) {
		vErr.add(fieldAvailableTo, "must not be before available_from")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	roomType, _ := persistence.ParseRoomType(input.Type)

	now := s.now()
	candidate := persistence.Room{
		ID:            s.idGenerator("room"),
		PropertyID:    property.ID,
		OwnerID:       property.OwnerID,
		City:          property.City,
		Type:          roomType,
		MonthlyRent:   input.MonthlyRent,
		Amenities:     normalizeAmenities(input.Amenities),
		AvailableFrom: input.AvailableFrom,
		AvailableTo:   input.AvailableTo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err = s.catalog.SaveRoom(ctx, property.City, candidate); err != nil {
		err = mapStoreError(err, "room", candidate.ID)
		return
	}

	updated := persistence.CloneProperty(property)
	updated.RoomIDs = append(updated.RoomIDs, candidate.ID)
	updated.UpdatedAt = now
	if err = s.catalog.SaveProperty(ctx, updated); err != nil {
		if rollbackErr := s.catalog.DeleteRoom(ctx, property.City, candidate.ID); rollbackErr != nil {
			logger.ErrorContext(ctx, "failed to roll back room", "room_id", candidate.ID, "error", rollbackErr)
		}
		err = mapStoreError(err, "property", property.ID)
		return
	}

	room = candidate
	return
}

// UpdateRoom merges the provided fields into a copy of the room, validates the
// result and only then writes it back. A failed update leaves the room as it was.
func (s *ListingService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room persistence.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"owner_id", params.OwnerID,
		"property_id", params.PropertyID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(roomAttrs(room)...).InfoContext(ctx, "room updated")
	}()

	release := s.locks.Lock(params.PropertyID)
	defer release()

	var property persistence.Property
	property, err = s.ownedProperty(ctx, params.OwnerID, params.PropertyID)
	if err != nil {
		return
	}
	if !property.HasRoom(params.RoomID) {
		err = notFound("room", params.RoomID)
		return
	}

	var existing persistence.Room
	existing, err = s.catalog.FindRoomByID(ctx, params.RoomID)
	if err != nil {
		err = mapStoreError(err, "room", params.RoomID)
		return
	}

	update := params.Update
	vErr := validateInput(update)
	candidate := persistence.CloneRoom(existing)
	if update.Type != nil {
		if roomType, ok := persistence.ParseRoomType(*update.Type); ok {
			candidate.Type = roomType
		}
	}
	if update.MonthlyRent != nil {
		candidate.MonthlyRent = *update.MonthlyRent
	}
	if update.Amenities != nil {
		candidate.Amenities = normalizeAmenities(*update.Amenities)
	}
	if update.AvailableFrom != nil {
		if update.AvailableFrom.IsZero() {
			vErr.add("available_from", "must be a valid date")
		}
		candidate.AvailableFrom = *update.AvailableFrom
	}
	if update.AvailableTo != nil {
		if update.AvailableTo.IsZero() {
			vErr.add(fieldAvailableTo, "must be a valid date")
		}
		candidate.AvailableTo = *update.AvailableTo
	}
	if candidate.AvailableTo.Before(candidate.AvailableFrom) {
		vErr.add(fieldAvailableTo, "must not be before available_from")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	candidate.UpdatedAt = s.now()
	if err = s.catalog.SaveRoom(ctx, property.City, candidate); err != nil {
		err = mapStoreError(err, "room", candidate.ID)
		return
	}
	room = candidate
	return
}

// RemoveRoom detaches the room from its property and deletes it from the catalog.
func (s *ListingService) RemoveRoom(ctx context.Context, ownerID, propertyID, roomID string) error {
	if err := s.ready(); err != nil {
		return err
	}

	logger := s.loggerWith(ctx, "RemoveRoom",
		"owner_id", ownerID,
		"property_id", propertyID,
		"room_id", roomID,
	)

	release := s.locks.Lock(propertyID)
	defer release()

	fail := func(err error) error {
		logger.ErrorContext(ctx, "failed to remove room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	property, err := s.ownedProperty(ctx, ownerID, propertyID)
	if err != nil {
		return fail(err)
	}
	if !property.HasRoom(roomID) {
		return fail(notFound("room", roomID))
	}

	if err := s.catalog.DeleteRoom(ctx, property.City, roomID); err != nil {
		return fail(err)
	}
	updated := persistence.CloneProperty(property)
	updated.RoomIDs = slices.DeleteFunc(updated.RoomIDs, func(id string) bool { return id == roomID })
	updated.UpdatedAt = s.now()
	if err := s.catalog.SaveProperty(ctx, updated); err != nil {
		return fail(mapStoreError(err, "property", property.ID))
	}

	logger.InfoContext(ctx, "room removed")
	return nil
}

// ListProperties returns the properties owned by ownerID.
func (s *ListingService) ListProperties(ctx context.Context, ownerID string) (properties []persistence.Property, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListProperties",
		"owner_id", ownerID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list properties", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(properties)).InfoContext(ctx, "properties listed")
	}()

	vErr := &ValidationError{}
	requireID(vErr, fieldOwnerID, ownerID)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	properties, err = s.catalog.FindPropertiesByOwner(ctx, strings.TrimSpace(ownerID))
	return
}

// ListRooms returns the rooms of an owned property in the order they were added.
// Rooms missing from the catalog are skipped.
func (s *ListingService) ListRooms(ctx context.Context, ownerID, propertyID string) (rooms []persistence.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"owner_id", ownerID,
		"property_id", propertyID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms listed")
	}()

	var property persistence.Property
	property, err = s.ownedProperty(ctx, ownerID, propertyID)
	if err != nil {
		return
	}

	rooms = make([]persistence.Room, 0, len(property.RoomIDs))
	for _, roomID := range property.RoomIDs {
		room, findErr := s.catalog.FindRoomByID(ctx, roomID)
		if errors.Is(findErr, persistence.ErrNotFound) {
			continue
		}
		if findErr != nil {
			err = findErr
			rooms = nil
			return
		}
		rooms = append(rooms, room)
	}
	return
}

// ownedProperty loads the property and checks that ownerID is its owner of record.
func (s *ListingService) ownedProperty(ctx context.Context, ownerID, propertyID string) (persistence.Property, error) {
	property, err := s.catalog.FindPropertyByID(ctx, propertyID)
	if err != nil {
		return persistence.Property{}, mapStoreError(err, "property", propertyID)
	}
	if property.OwnerID != ownerID {
		return persistence.Property{}, ErrUnauthorized
	}
	return property, nil
}

// providedString reports the trimmed value when it is present and non-blank.
func providedString(value *string) (string, bool) {
	if value == nil {
		return "", false
	}
	trimmed := strings.TrimSpace(*value)
	return trimmed, trimmed != ""
}

func mapStoreError(err error, kind, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return notFound(kind, id)
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrAlreadyExists)
	}
	return err
}
