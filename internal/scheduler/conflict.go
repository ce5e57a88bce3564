package scheduler

import "sort"

// Reservation is a committed claim on a resource for a window of days.
type Reservation struct {
	ID         string
	ResourceID string
	Window     Window
}

// Conflict details an overlapping reservation that blocks a candidate window.
type Conflict struct {
	WithReservationID string
	ResourceID        string
	Window            Window
}

// DetectConflicts returns the reservations on the candidate's resource whose
// windows overlap the candidate. Reservations sharing the candidate's ID are
// ignored so a booking never conflicts with itself.
func DetectConflicts(existing []Reservation, candidate Reservation) []Conflict {
	var conflicts []Conflict
	for _, r := range existing {
		if r.ID != "" && r.ID == candidate.ID {
			continue
		}
		if r.ResourceID != candidate.ResourceID {
			continue
		}
		if !r.Window.Overlaps(candidate.Window) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithReservationID: r.ID,
			ResourceID:        r.ResourceID,
			Window:            r.Window,
		})
	}
	return conflicts
}

// PairwiseConflicts scans reservations pairwise and reports every pair on the
// same resource whose windows overlap. Each pair is reported once, keyed by the
// earlier-starting reservation.
func PairwiseConflicts(reservations []Reservation) [][2]Reservation {
	ordered := make([]Reservation, len(reservations))
	copy(ordered, reservations)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Window.Start.Equal(ordered[j].Window.Start) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].Window.Start.Before(ordered[j].Window.Start)
	})

	var pairs [][2]Reservation
	for i := range ordered {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[i].ResourceID != ordered[j].ResourceID {
				continue
			}
			if ordered[i].Window.Overlaps(ordered[j].Window) {
				pairs = append(pairs, [2]Reservation{ordered[i], ordered[j]})
			}
		}
	}
	return pairs
}
