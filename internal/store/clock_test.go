package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonicClock_StrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &MonotonicClock{now: func() time.Time { return frozen }}

	a := c.Now()
	b := c.Now()
	d := c.Now()

	assert.True(t, b.After(a))
	assert.True(t, d.After(b))
	assert.Equal(t, time.Microsecond, b.Sub(a))
}

func TestMonotonicClock_FollowsSource(t *testing.T) {
	c := NewMonotonicClock()
	a := c.Now()
	time.Sleep(2 * time.Millisecond)
	b := c.Now()
	assert.GreaterOrEqual(t, b.Sub(a), time.Millisecond)
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	id := g.Generate()

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.NotEqual(t, id, g.Generate())
}
