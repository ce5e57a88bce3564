package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/example/student-rentals/internal/persistence"
	"github.com/example/student-rentals/internal/scheduler"
)

// RoomFinder is the read-only view of the catalog used by search.
type RoomFinder interface {
	FindRoomsByCity(ctx context.Context, city string) ([]persistence.Room, error)
	FindAllRooms(ctx context.Context) ([]persistence.Room, error)
}

// SearchService filters the room catalog for students.
type SearchService struct {
	rooms  RoomFinder
	logger *slog.Logger
}

// NewSearchService constructs a search service.
func NewSearchService(rooms RoomFinder) *SearchService {
	return NewSearchServiceWithLogger(rooms, nil)
}

// NewSearchServiceWithLogger constructs a search service with a specified logger.
func NewSearchServiceWithLogger(rooms RoomFinder, logger *slog.Logger) *SearchService {
	return &SearchService{rooms: rooms, logger: defaultLogger(logger)}
}

func (s *SearchService) ready() error {
	if s == nil {
		return fmt.Errorf("SearchService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room finder not configured")
	}
	return nil
}

// Search returns the rooms matching every provided criterion ordered by rent
// and then id. A blank city searches all rooms. The stay filter applies only
// when both dates are set and keeps rooms whose availability contains the stay.
func (s *SearchService) Search(ctx context.Context, criteria SearchCriteria) (rooms []persistence.Room, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := serviceLogger(ctx, s.logger, "SearchService", "Search",
		"city", criteria.City,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "search failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "search completed")
	}()

	vErr := validateInput(criteria)
	if criteria.MinRent != nil && criteria.MaxRent != nil && *criteria.MaxRent < *criteria.MinRent {
		vErr.add("max_rent", "must not be below min_rent")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var candidates []persistence.Room
	if strings.TrimSpace(criteria.City) == "" {
		candidates, err = s.rooms.FindAllRooms(ctx)
	} else {
		candidates, err = s.rooms.FindRoomsByCity(ctx, criteria.City)
	}
	if err != nil {
		return
	}

	match := criteria.matcher()
	rooms = make([]persistence.Room, 0, len(candidates))
	for _, room := range candidates {
		if match(room) {
			rooms = append(rooms, room)
		}
	}

	sort.SliceStable(rooms, func(i, j int) bool {
		if rooms[i].MonthlyRent == rooms[j].MonthlyRent {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].MonthlyRent < rooms[j].MonthlyRent
	})
	return
}

func (c SearchCriteria) matcher() func(persistence.Room) bool {
	roomType, filterType := persistence.ParseRoomType(c.Type)
	filterStay := !c.StartDate.IsZero() && !c.EndDate.IsZero()
	stay := scheduler.NewWindow(c.StartDate, c.EndDate)

	return func(room persistence.Room) bool {
		if c.MinRent != nil && room.MonthlyRent < *c.MinRent {
			return false
		}
		if c.MaxRent != nil && room.MonthlyRent > *c.MaxRent {
			return false
		}
		if filterType && room.Type != roomType {
			return false
		}
		if filterStay {
			if !stay.Valid() {
				return false
			}
			if !room.Availability().Contains(stay) {
				return false
			}
		}
		return true
	}
}
