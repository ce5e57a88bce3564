package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/student-rentals/internal/persistence"
)

const propertyColumns = `id, owner_id, address, city, description, created_at, updated_at`

const roomColumns = `id, property_id, owner_id, city, type, monthly_rent, amenities,
	available_from, available_to, created_at, updated_at`

// SaveProperty upserts the property and replaces its ordered room list.
func (s *Storage) SaveProperty(ctx context.Context, property persistence.Property) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO properties (`+propertyColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				address = excluded.address,
				city = excluded.city,
				description = excluded.description,
				updated_at = excluded.updated_at`,
			property.ID,
			property.OwnerID,
			property.Address,
			property.City,
			property.Description,
			formatTime(property.CreatedAt),
			formatTime(property.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("sqlite: save property %s: %w", property.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM property_rooms WHERE property_id = ?`, property.ID); err != nil {
			return fmt.Errorf("sqlite: clear rooms of property %s: %w", property.ID, err)
		}
		for i, roomID := range property.RoomIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO property_rooms (property_id, position, room_id) VALUES (?, ?, ?)`,
				property.ID, i, roomID); err != nil {
				return fmt.Errorf("sqlite: link room %s to property %s: %w", roomID, property.ID, err)
			}
		}
		return nil
	})
}

// FindPropertyByID retrieves a property with its room ids in insertion order.
func (s *Storage) FindPropertyByID(ctx context.Context, id string) (persistence.Property, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = ?`, id)
	property, err := scanProperty(row)
	if err != nil {
		return persistence.Property{}, mapError(err)
	}

	links, err := s.roomLinks(ctx, `WHERE property_id = ?`, id)
	if err != nil {
		return persistence.Property{}, err
	}
	property.RoomIDs = links[property.ID]
	return property, nil
}

// FindPropertiesByOwner lists the owner's properties in insertion order.
func (s *Storage) FindPropertiesByOwner(ctx context.Context, ownerID string) ([]persistence.Property, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE owner_id = ? ORDER BY rowid`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list properties of %s: %w", ownerID, err)
	}
	properties, err := collect(rows, scanProperty)
	if err != nil {
		return nil, err
	}

	links, err := s.roomLinks(ctx,
		`WHERE property_id IN (SELECT id FROM properties WHERE owner_id = ?)`, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range properties {
		properties[i].RoomIDs = links[properties[i].ID]
	}
	return properties, nil
}

// DeleteProperty removes the property and its room links. Unknown ids are a no-op.
func (s *Storage) DeleteProperty(ctx context.Context, ownerID, propertyID string) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM property_rooms WHERE property_id = ?`, propertyID); err != nil {
			return fmt.Errorf("sqlite: delete room links of %s: %w", propertyID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, propertyID); err != nil {
			return fmt.Errorf("sqlite: delete property %s: %w", propertyID, err)
		}
		return nil
	})
}

// SaveRoom upserts the room and indexes it under the normalised city.
func (s *Storage) SaveRoom(ctx context.Context, city string, room persistence.Room) error {
	amenities, err := json.Marshal(room.Amenities)
	if err != nil {
		return fmt.Errorf("sqlite: encode amenities of room %s: %w", room.ID, err)
	}

	return s.write(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (`+roomColumns+`, city_key)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				property_id = excluded.property_id,
				owner_id = excluded.owner_id,
				city = excluded.city,
				city_key = excluded.city_key,
				type = excluded.type,
				monthly_rent = excluded.monthly_rent,
				amenities = excluded.amenities,
				available_from = excluded.available_from,
				available_to = excluded.available_to,
				updated_at = excluded.updated_at`,
			room.ID,
			room.PropertyID,
			room.OwnerID,
			room.City,
			string(room.Type),
			room.MonthlyRent,
			string(amenities),
			room.AvailableFrom.String(),
			room.AvailableTo.String(),
			formatTime(room.CreatedAt),
			formatTime(room.UpdatedAt),
			persistence.CityKey(city),
		)
		if err != nil {
			return fmt.Errorf("sqlite: save room %s: %w", room.ID, err)
		}
		return nil
	})
}

// FindRoomByID retrieves a room by id.
func (s *Storage) FindRoomByID(ctx context.Context, id string) (persistence.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}
	return room, nil
}

// FindRoomsByCity lists rooms indexed under the city, ignoring case and
// surrounding whitespace.
func (s *Storage) FindRoomsByCity(ctx context.Context, city string) ([]persistence.Room, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE city_key = ? ORDER BY rowid`, persistence.CityKey(city))
	if err != nil {
		return nil, fmt.Errorf("sqlite: list rooms in %q: %w", city, err)
	}
	return collect(rows, scanRoom)
}

// FindAllRooms lists every room ordered by id.
func (s *Storage) FindAllRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list rooms: %w", err)
	}
	return collect(rows, scanRoom)
}

// DeleteRoom removes the room. Unknown ids are a no-op.
func (s *Storage) DeleteRoom(ctx context.Context, city, roomID string) error {
	return s.write(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID); err != nil {
			return fmt.Errorf("sqlite: delete room %s: %w", roomID, err)
		}
		return nil
	})
}

// roomLinks loads ordered room ids per property for the property_rooms rows
// matched by where.
func (s *Storage) roomLinks(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT property_id, room_id FROM property_rooms `+where+` ORDER BY property_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load room links: %w", err)
	}
	defer rows.Close()

	links := make(map[string][]string)
	for rows.Next() {
		var propertyID, roomID string
		if err := rows.Scan(&propertyID, &roomID); err != nil {
			return nil, fmt.Errorf("sqlite: scan room link: %w", err)
		}
		links[propertyID] = append(links[propertyID], roomID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate room links: %w", err)
	}
	return links, nil
}

func scanProperty(row rowScanner) (persistence.Property, error) {
	var (
		property  persistence.Property
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&property.ID,
		&property.OwnerID,
		&property.Address,
		&property.City,
		&property.Description,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Property{}, err
	}

	var err error
	if property.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Property{}, err
	}
	if property.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Property{}, err
	}
	return property, nil
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room          persistence.Room
		roomType      string
		amenities     string
		availableFrom string
		availableTo   string
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(
		&room.ID,
		&room.PropertyID,
		&room.OwnerID,
		&room.City,
		&roomType,
		&room.MonthlyRent,
		&amenities,
		&availableFrom,
		&availableTo,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Room{}, err
	}

	room.Type = persistence.RoomType(roomType)
	if err := json.Unmarshal([]byte(amenities), &room.Amenities); err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: decode amenities of room %s: %w", room.ID, err)
	}
	dates, err := parseDates(availableFrom, availableTo)
	if err != nil {
		return persistence.Room{}, fmt.Errorf("sqlite: decode availability of room %s: %w", room.ID, err)
	}
	room.AvailableFrom, room.AvailableTo = dates[0], dates[1]
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

// collect drains rows through scan and closes them.
func collect[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan row: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate rows: %w", err)
	}
	return out, nil
}
