package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

func sampleRoom(id, city string) persistence.Room {
	return persistence.Room{
		ID:            id,
		PropertyID:    "prop-1",
		OwnerID:       "own-1",
		City:          city,
		Type:          persistence.RoomTypeSingle,
		MonthlyRent:   500,
		Amenities:     []string{"desk", "wifi"},
		AvailableFrom: scheduler.MustParseDate("2025-09-01"),
		AvailableTo:   scheduler.MustParseDate("2025-12-20"),
	}
}

func TestCatalog_RoomsByCity(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	if err := catalog.SaveRoom(ctx, "  London ", sampleRoom("room-1", "London")); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}
	if err := catalog.SaveRoom(ctx, "london", sampleRoom("room-2", "London")); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}
	if err := catalog.SaveRoom(ctx, "Leeds", sampleRoom("room-3", "Leeds")); err != nil {
		t.Fatalf("SaveRoom failed: %v", err)
	}

	rooms, err := catalog.FindRoomsByCity(ctx, "LONDON")
	if err != nil {
		t.Fatalf("FindRoomsByCity failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != "room-1" || rooms[1].ID != "room-2" {
		t.Fatalf("expected room-1 and room-2 for london, got %+v", rooms)
	}

	all, err := catalog.FindAllRooms(ctx)
	if err != nil {
		t.Fatalf("FindAllRooms failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rooms, got %d", len(all))
	}
}

func TestCatalog_ResavingRoomDoesNotDuplicateRows(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	room := sampleRoom("room-1", "London")
	_ = catalog.SaveRoom(ctx, "London", room)
	room.MonthlyRent = 650
	_ = catalog.SaveRoom(ctx, "London", room)

	rooms, _ := catalog.FindRoomsByCity(ctx, "London")
	if len(rooms) != 1 {
		t.Fatalf("expected a single row after re-save, got %d", len(rooms))
	}
	if rooms[0].MonthlyRent != 650 {
		t.Fatalf("expected overwritten rent 650, got %v", rooms[0].MonthlyRent)
	}
}

func TestCatalog_StaleIndexEntriesAreSkipped(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	_ = catalog.SaveRoom(ctx, "London", sampleRoom("room-1", "London"))
	catalog.roomsByCity["london"] = append(catalog.roomsByCity["london"], "room-ghost")

	_ = catalog.SaveProperty(ctx, persistence.Property{ID: "prop-1", OwnerID: "own-1", City: "London"})
	catalog.propertiesByOwner["own-1"] = append(catalog.propertiesByOwner["own-1"], "prop-ghost")

	rooms, err := catalog.FindRoomsByCity(ctx, "London")
	if err != nil {
		t.Fatalf("expected stale room id to be tolerated, got %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "room-1" {
		t.Fatalf("expected only room-1, got %+v", rooms)
	}

	properties, err := catalog.FindPropertiesByOwner(ctx, "own-1")
	if err != nil {
		t.Fatalf("expected stale property id to be tolerated, got %v", err)
	}
	if len(properties) != 1 || properties[0].ID != "prop-1" {
		t.Fatalf("expected only prop-1, got %+v", properties)
	}
}

func TestCatalog_DeleteProperty(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	_ = catalog.SaveProperty(ctx, persistence.Property{ID: "prop-1", OwnerID: "own-1"})
	_ = catalog.SaveProperty(ctx, persistence.Property{ID: "prop-2", OwnerID: "own-1"})

	if err := catalog.DeleteProperty(ctx, "own-1", "prop-1"); err != nil {
		t.Fatalf("DeleteProperty failed: %v", err)
	}
	if _, err := catalog.FindPropertyByID(ctx, "prop-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	properties, _ := catalog.FindPropertiesByOwner(ctx, "own-1")
	if len(properties) != 1 || properties[0].ID != "prop-2" {
		t.Fatalf("expected prop-2 to remain, got %+v", properties)
	}

	if err := catalog.DeleteProperty(ctx, "own-1", "prop-missing"); err != nil {
		t.Fatalf("expected deleting an unknown property to be a no-op, got %v", err)
	}
}

func TestCatalog_DeleteRoomClearsCityIndex(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	_ = catalog.SaveRoom(ctx, "London", sampleRoom("room-1", "London"))
	if err := catalog.DeleteRoom(ctx, " LONDON", "room-1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, ok := catalog.roomsByCity["london"]; ok {
		t.Fatalf("expected empty city bucket to be dropped")
	}
	if _, err := catalog.FindRoomByID(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	catalog := NewCatalog()

	_ = catalog.SaveRoom(ctx, "London", sampleRoom("room-1", "London"))
	room, _ := catalog.FindRoomByID(ctx, "room-1")
	room.Amenities[0] = "mutated"
	room.MonthlyRent = 1

	stored, _ := catalog.FindRoomByID(ctx, "room-1")
	if stored.Amenities[0] != "desk" || stored.MonthlyRent != 500 {
		t.Fatalf("expected stored room to be unaffected by caller mutation, got %+v", stored)
	}
}
