package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic identifiers for tests. Each prefix keeps
// its own counter, so "room" and "book" sequences both start at 1.
type IDGenerator struct {
	mu       sync.Mutex
	fallback string
	counters map[string]uint64
}

// NewIDGenerator constructs a generator. fallback is used for calls with an
// empty prefix; when it is empty, "id" is used.
func NewIDGenerator(fallback string) *IDGenerator {
	if fallback == "" {
		fallback = "id"
	}
	return &IDGenerator{fallback: fallback, counters: make(map[string]uint64)}
}

// Next returns the next identifier for prefix, formatted as prefix-N.
func (g *IDGenerator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prefix == "" {
		prefix = g.fallback
	}
	g.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.counters[prefix])
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func(prefix string) string {
	if g == nil {
		return func(string) string { return "" }
	}
	return g.Next
}
