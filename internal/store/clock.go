package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock supplies wall-clock time for generated timestamps.
type Clock interface {
	Now() time.Time
}

// MonotonicClock wraps a time source and guarantees strictly increasing
// readings at microsecond resolution, the resolution of record.TimeLayout.
// Two writes in the same microsecond still receive distinct, ordered
// timestamps.
//
// Thread-safety: MonotonicClock is safe for concurrent use.
type MonotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewMonotonicClock creates a clock backed by time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{now: time.Now}
}

// Now returns the next reading, always after the previous one.
func (c *MonotonicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// IDGenerator produces record identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a millisecond timestamp in the most significant bits and
// fills the rest with randomness, so identifiers are collision resistant and
// roughly sortable by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
