package scheduler

import "testing"

func window(start, end string) Window {
	return NewWindow(MustParseDate(start), MustParseDate(end))
}

func TestWindowOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b Window
		want bool
	}{
		{"identical", window("2025-09-01", "2025-09-30"), window("2025-09-01", "2025-09-30"), true},
		{"touching boundary", window("2025-01-01", "2025-01-05"), window("2025-01-05", "2025-01-09"), true},
		{"strictly adjacent", window("2025-01-01", "2025-01-05"), window("2025-01-06", "2025-01-09"), false},
		{"contained", window("2025-01-01", "2025-01-31"), window("2025-01-10", "2025-01-12"), true},
		{"single day inside", window("2025-01-01", "2025-01-31"), window("2025-01-31", "2025-01-31"), true},
		{"disjoint", window("2025-01-01", "2025-01-05"), window("2025-03-01", "2025-03-09"), false},
		{"partial", window("2025-09-01", "2025-09-30"), window("2025-09-15", "2025-10-01"), true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("overlap is not symmetric for %s and %s", tc.a, tc.b)
			}
		})
	}
}

func TestWindowOverlapSymmetryExhaustive(t *testing.T) {
	t.Parallel()

	base := NewDate(2025, 1, 1)
	var windows []Window
	for s := 0; s < 6; s++ {
		for e := s; e < 6; e++ {
			windows = append(windows, NewWindow(base.AddDays(s), base.AddDays(e)))
		}
	}
	for _, a := range windows {
		for _, b := range windows {
			if a.Overlaps(b) != b.Overlaps(a) {
				t.Fatalf("overlap(%s, %s) differs from overlap(%s, %s)", a, b, b, a)
			}
		}
	}
}

func TestWindowContainsAndValid(t *testing.T) {
	t.Parallel()

	availability := window("2025-09-01", "2025-12-20")
	if !availability.Contains(window("2025-09-01", "2025-12-20")) {
		t.Fatalf("expected window to contain itself")
	}
	if availability.Contains(window("2025-08-31", "2025-09-10")) {
		t.Fatalf("expected start before availability to be rejected")
	}
	if availability.Contains(window("2025-12-01", "2025-12-21")) {
		t.Fatalf("expected end after availability to be rejected")
	}

	if (Window{Start: MustParseDate("2025-01-02"), End: MustParseDate("2025-01-01")}).Valid() {
		t.Fatalf("expected inverted window to be invalid")
	}
	if (Window{Start: MustParseDate("2025-01-02")}).Valid() {
		t.Fatalf("expected window without end to be invalid")
	}
	if got := window("2025-01-01", "2025-01-01").Days(); got != 1 {
		t.Fatalf("expected single day window to cover 1 day, got %d", got)
	}
}

func TestDetectConflicts(t *testing.T) {
	t.Run("room overlap produces conflict", func(t *testing.T) {
		existing := []Reservation{
			{ID: "book-1", ResourceID: "room-1", Window: window("2025-09-01", "2025-09-30")},
			{ID: "book-2", ResourceID: "room-2", Window: window("2025-09-01", "2025-09-30")},
		}
		conflicts := DetectConflicts(existing, Reservation{ID: "book-3", ResourceID: "room-1", Window: window("2025-09-30", "2025-10-05")})
		if len(conflicts) != 1 || conflicts[0].WithReservationID != "book-1" {
			t.Fatalf("expected single conflict with book-1, got %+v", conflicts)
		}
	})

	t.Run("non-overlapping reservations yield no conflicts", func(t *testing.T) {
		existing := []Reservation{{ID: "book-1", ResourceID: "room-1", Window: window("2025-09-01", "2025-09-30")}}
		if conflicts := DetectConflicts(existing, Reservation{ID: "book-2", ResourceID: "room-1", Window: window("2025-10-01", "2025-10-15")}); len(conflicts) != 0 {
			t.Fatalf("expected no conflicts, got %+v", conflicts)
		}
	})

	t.Run("reservation never conflicts with itself", func(t *testing.T) {
		existing := []Reservation{{ID: "book-1", ResourceID: "room-1", Window: window("2025-09-01", "2025-09-30")}}
		if conflicts := DetectConflicts(existing, existing[0]); len(conflicts) != 0 {
			t.Fatalf("expected no self conflict, got %+v", conflicts)
		}
	})
}

func TestPairwiseConflicts(t *testing.T) {
	t.Parallel()

	reservations := []Reservation{
		{ID: "c", ResourceID: "room-1", Window: window("2025-10-01", "2025-10-15")},
		{ID: "a", ResourceID: "room-1", Window: window("2025-09-01", "2025-09-30")},
		{ID: "b", ResourceID: "room-1", Window: window("2025-09-30", "2025-09-30")},
		{ID: "d", ResourceID: "room-2", Window: window("2025-09-01", "2025-09-30")},
	}
	pairs := PairwiseConflicts(reservations)
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one overlapping pair, got %d", len(pairs))
	}
	if pairs[0][0].ID != "a" || pairs[0][1].ID != "b" {
		t.Fatalf("unexpected pair %s/%s", pairs[0][0].ID, pairs[0][1].ID)
	}
}

func TestDateText(t *testing.T) {
	t.Parallel()

	var d Date
	if err := d.UnmarshalText([]byte("2025-09-01")); err != nil {
		t.Fatalf("UnmarshalText returned error: %v", err)
	}
	if !d.Equal(NewDate(2025, 9, 1)) {
		t.Fatalf("unexpected date %s", d)
	}
	if _, err := ParseDate("2025-13-01"); err == nil {
		t.Fatalf("expected invalid month to fail")
	}
	blank, err := ParseDate("  ")
	if err != nil || !blank.IsZero() {
		t.Fatalf("expected blank input to yield zero date, got %v, %v", blank, err)
	}
}
