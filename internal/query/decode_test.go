package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

type trip struct {
	ID     string   `json:"id"`
	Origin string   `json:"origin"`
	Weight float64  `json:"weight"`
	Tags   []string `json:"tags"`
}

func TestDecode(t *testing.T) {
	rows := []record.Record{
		record.New(map[string]any{"id": "t1", "origin": "Lisbon", "weight": 5, "tags": []string{"fragile"}}),
		record.New(map[string]any{"id": "t2", "origin": "Porto", "extra": true}),
	}

	trips, err := Decode[trip](rows)

	require.NoError(t, err)
	assert.Equal(t, []trip{
		{ID: "t1", Origin: "Lisbon", Weight: 5, Tags: []string{"fragile"}},
		{ID: "t2", Origin: "Porto"},
	}, trips)
}

func TestDecode_TypeMismatch(t *testing.T) {
	_, err := Decode[trip]([]record.Record{{"weight": "heavy"}})
	assert.Error(t, err)
}

func TestDecodeOne(t *testing.T) {
	got, ok, err := DecodeOne[trip](record.Record{"id": "t1"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", got.ID)

	_, ok, err = DecodeOne[trip](nil)
	require.NoError(t, err)
	assert.False(t, ok)
}
