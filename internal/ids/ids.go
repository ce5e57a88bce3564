// Package ids issues opaque identifiers for catalog, booking and account records.
package ids

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random identifier of the form "<prefix>-<uuid>". An empty
// prefix yields the bare UUID.
func NewID(prefix string) string {
	id := uuid.NewString()
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

// Generator exposes NewID as a function suitable for dependency injection.
func Generator() func(prefix string) string {
	return NewID
}
