package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/student-rentals/internal/persistence"
)

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()
	h := newRentalsHarness()

	london := h.property("own-1", "London")
	leeds := h.property("own-2", "Leeds")
	cheap := h.room("own-1", london.ID, 400, "2025-09-01", "2025-12-20")
	pricey := h.room("own-1", london.ID, 900, "2025-09-01", "2026-06-30")
	_, err := h.listings.AddRoom(ctx, AddRoomParams{
		OwnerID:    "own-1",
		PropertyID: london.ID,
		Input:      RoomInput{Type: "DOUBLE", MonthlyRent: 400, AvailableFrom: date("2025-10-01"), AvailableTo: date("2025-12-20")},
	})
	if err != nil {
		t.Fatalf("AddRoom returned error: %v", err)
	}
	northern := h.room("own-2", leeds.ID, 350, "2025-09-01", "2025-12-20")

	ids := func(rooms []persistence.Room) []string {
		out := make([]string, 0, len(rooms))
		for _, room := range rooms {
			out = append(out, room.ID)
		}
		return out
	}

	cases := []struct {
		name     string
		criteria SearchCriteria
		want     []string
	}{
		{"blank city returns all rooms by rent", SearchCriteria{}, []string{northern.ID, cheap.ID, "room-3", pricey.ID}},
		{"city is case insensitive", SearchCriteria{City: " LONDON "}, []string{cheap.ID, "room-3", pricey.ID}},
		{"rent range", SearchCriteria{MinRent: floatPtr(380), MaxRent: floatPtr(500)}, []string{cheap.ID, "room-3"}},
		{"room type", SearchCriteria{City: "london", Type: "double"}, []string{"room-3"}},
		{"stay must be contained", SearchCriteria{StartDate: date("2025-09-15"), EndDate: date("2026-01-15")}, []string{pricey.ID}},
		{"stay on availability boundary", SearchCriteria{City: "leeds", StartDate: date("2025-12-20"), EndDate: date("2025-12-20")}, []string{northern.ID}},
		{"inverted stay matches nothing", SearchCriteria{StartDate: date("2025-10-10"), EndDate: date("2025-10-01")}, []string{}},
		{"unknown city", SearchCriteria{City: "York"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rooms, err := h.search.Search(ctx, tc.criteria)
			if err != nil {
				t.Fatalf("Search returned error: %v", err)
			}
			got := ids(rooms)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}

	t.Run("rejects invalid criteria", func(t *testing.T) {
		_, err := h.search.Search(ctx, SearchCriteria{Type: "suite", MinRent: floatPtr(500), MaxRent: floatPtr(100)})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["type"] == "" || vErr.FieldErrors["max_rent"] == "" {
			t.Fatalf("expected type and max_rent errors, got %v", vErr.FieldErrors)
		}
	})
}

func TestSearchService_RequiresRoomFinder(t *testing.T) {
	ctx := context.Background()

	rooms, err := NewSearchService(nil).Search(ctx, SearchCriteria{City: "London"})
	if err == nil {
		t.Fatalf("expected error for missing room finder, got rooms %v", rooms)
	}

	var nilService *SearchService
	if _, err := nilService.Search(ctx, SearchCriteria{}); err == nil {
		t.Fatal("expected error for nil service")
	}
}
