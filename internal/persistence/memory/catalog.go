// Package memory provides in-process implementations of the persistence
// contracts backed by maps and id-list secondary indices.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/example/student-rentals/internal/persistence"
)

// Catalog implements persistence.CatalogStore.
type Catalog struct {
	mu                sync.RWMutex
	properties        map[string]persistence.Property
	propertiesByOwner map[string][]string
	rooms             map[string]persistence.Room
	roomsByCity       map[string][]string
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		properties:        make(map[string]persistence.Property),
		propertiesByOwner: make(map[string][]string),
		rooms:             make(map[string]persistence.Room),
		roomsByCity:       make(map[string][]string),
	}
}

// SaveProperty stores the property, overwriting any record with the same id.
func (c *Catalog) SaveProperty(ctx context.Context, property persistence.Property) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.properties[property.ID] = persistence.CloneProperty(property)
	c.propertiesByOwner[property.OwnerID] = appendUnique(c.propertiesByOwner[property.OwnerID], property.ID)
	return nil
}

// FindPropertyByID retrieves a property by id.
func (c *Catalog) FindPropertyByID(ctx context.Context, id string) (persistence.Property, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	property, ok := c.properties[id]
	if !ok {
		return persistence.Property{}, persistence.ErrNotFound
	}
	return persistence.CloneProperty(property), nil
}

// FindPropertiesByOwner lists the owner's properties in insertion order.
func (c *Catalog) FindPropertiesByOwner(ctx context.Context, ownerID string) ([]persistence.Property, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return materialize(c.propertiesByOwner[ownerID], c.properties, persistence.CloneProperty), nil
}

// DeleteProperty removes the property from the primary map and the owner index.
func (c *Catalog) DeleteProperty(ctx context.Context, ownerID, propertyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.properties[propertyID]; !ok {
		return nil
	}
	delete(c.properties, propertyID)
	c.propertiesByOwner[ownerID] = removeID(c.propertiesByOwner[ownerID], propertyID)
	if len(c.propertiesByOwner[ownerID]) == 0 {
		delete(c.propertiesByOwner, ownerID)
	}
	return nil
}

// SaveRoom stores the room and indexes it under the normalised city.
func (c *Catalog) SaveRoom(ctx context.Context, city string, room persistence.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := persistence.CityKey(city)
	c.rooms[room.ID] = persistence.CloneRoom(room)
	c.roomsByCity[key] = appendUnique(c.roomsByCity[key], room.ID)
	return nil
}

// FindRoomByID retrieves a room by id.
func (c *Catalog) FindRoomByID(ctx context.Context, id string) (persistence.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	room, ok := c.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return persistence.CloneRoom(room), nil
}

// FindRoomsByCity lists rooms indexed under the city, ignoring case and
// surrounding whitespace.
func (c *Catalog) FindRoomsByCity(ctx context.Context, city string) ([]persistence.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return materialize(c.roomsByCity[persistence.CityKey(city)], c.rooms, persistence.CloneRoom), nil
}

// FindAllRooms lists every room ordered by id.
func (c *Catalog) FindAllRooms(ctx context.Context) ([]persistence.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rooms := make([]persistence.Room, 0, len(c.rooms))
	for _, room := range c.rooms {
		rooms = append(rooms, persistence.CloneRoom(room))
	}
	slices.SortFunc(rooms, func(a, b persistence.Room) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return rooms, nil
}

// DeleteRoom removes the room from the primary map and from the city index.
func (c *Catalog) DeleteRoom(ctx context.Context, city, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := persistence.CityKey(city)
	delete(c.rooms, roomID)
	c.roomsByCity[key] = removeID(c.roomsByCity[key], roomID)
	if len(c.roomsByCity[key]) == 0 {
		delete(c.roomsByCity, key)
	}
	return nil
}

// materialize resolves index ids against the primary map. Unknown ids are
// skipped and repeated ids yield a single row.
func materialize[T any](ids []string, records map[string]T, clone func(T) T) []T {
	out := make([]T, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		record, ok := records[id]
		if !ok {
			continue
		}
		out = append(out, clone(record))
	}
	return out
}

func appendUnique(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(candidate string) bool { return candidate == id })
}
