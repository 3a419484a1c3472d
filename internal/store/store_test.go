package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// stepClock advances one millisecond per reading from a fixed epoch.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

// seqIDs yields "id-1", "id-2", ...
type seqIDs struct{ n int }

func (g *seqIDs) Generate() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newTestStore() *Store {
	return New(
		WithClock(&stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}),
		WithIDGenerator(&seqIDs{}),
	)
}

func TestGet_UnknownTableIsEmpty(t *testing.T) {
	s := New()
	rows := s.Get("nope")
	require.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestInsert_FillsIDAndCreatedAt(t *testing.T) {
	s := newTestStore()

	got := s.Insert("trips", record.Record{"origin": "LIS"})

	assert.Equal(t, "id-1", got["id"])
	assert.Equal(t, "2024-01-01T00:00:00.001000Z", got["created_at"])
	assert.Equal(t, "LIS", got["origin"])
	assert.Len(t, s.Get("trips"), 1)
}

func TestInsert_KeepsProvidedFields(t *testing.T) {
	s := newTestStore()

	got := s.Insert("trips", record.Record{"id": "t1", "created_at": "2020-01-01T00:00:00.000000Z"})

	assert.Equal(t, "t1", got["id"])
	assert.Equal(t, "2020-01-01T00:00:00.000000Z", got["created_at"])
}

func TestInsert_IdenticalRecordsGetDistinctIDs(t *testing.T) {
	s := New()

	a := s.Insert("requests", record.Record{"item": "book"})
	b := s.Insert("requests", record.Record{"item": "book"})

	assert.NotEqual(t, a["id"], b["id"])
}

func TestInsert_ReturnsCopy(t *testing.T) {
	s := newTestStore()

	got := s.Insert("trips", record.Record{"origin": "LIS"})
	got["origin"] = "OPO"

	assert.Equal(t, "LIS", s.Get("trips")[0]["origin"])
}

func TestUpdate_MergesAndRefreshesUpdatedAt(t *testing.T) {
	s := New()
	orig := s.Insert("trips", record.Record{"a": "keep", "b": "old"})

	before := orig["created_at"].(string)
	got, ok := s.Update("trips", orig.ID(), record.Record{"b": "new"})

	require.True(t, ok)
	assert.Equal(t, "keep", got["a"])
	assert.Equal(t, "new", got["b"])
	assert.Greater(t, got["updated_at"].(string), before)

	again, ok := s.Update("trips", orig.ID(), record.Record{"b": "newer"})
	require.True(t, ok)
	assert.Greater(t, again["updated_at"].(string), got["updated_at"].(string))
}

func TestUpdate_UpdatedAtPassesSeededValue(t *testing.T) {
	tests := []struct {
		name string
		prev string
		want string
	}{
		{name: "future fixed width", prev: "2025-03-01T00:00:00.000000Z", want: "2025-03-01T00:00:00.000001Z"},
		{name: "future rfc3339", prev: "2025-03-01T00:00:00Z", want: "2025-03-01T00:00:00.000001Z"},
		{name: "past", prev: "2020-01-01T00:00:00.000000Z", want: "2024-01-01T00:00:00.001000Z"},
		{name: "not a timestamp", prev: "yesterday", want: "2024-01-01T00:00:00.001000Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			s.Seed("trips", []record.Record{{"id": "t1", "updated_at": tt.prev}})

			got, ok := s.Update("trips", "t1", record.Record{"b": 3})

			require.True(t, ok)
			assert.Equal(t, tt.want, got["updated_at"])
		})
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := New()
	got, ok := s.Update("trips", "missing", record.Record{"b": 1})
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestDelete(t *testing.T) {
	s := newTestStore()
	s.Insert("trips", record.Record{"n": 1})
	r2 := s.Insert("trips", record.Record{"n": 2})
	s.Insert("trips", record.Record{"n": 3})

	assert.True(t, s.Delete("trips", r2.ID()))
	assert.False(t, s.Delete("trips", r2.ID()))

	rows := s.Get("trips")
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["n"])
	assert.Equal(t, int64(3), rows[1]["n"])
}

func TestSeed_BypassesAutoFill(t *testing.T) {
	s := newTestStore()
	s.Insert("trips", record.Record{"n": 0})

	s.Seed("trips", []record.Record{{"origin": "LIS"}, {"origin": "OPO"}})

	rows := s.Get("trips")
	require.Len(t, rows, 2)
	assert.NotContains(t, rows[0], "id")
	assert.NotContains(t, rows[0], "created_at")
	assert.Equal(t, "OPO", rows[1]["origin"])
}

func TestReset(t *testing.T) {
	s := newTestStore()
	s.Insert("trips", record.Record{"n": 1})
	s.Insert("requests", record.Record{"n": 1})

	s.Reset()

	assert.Empty(t, s.Get("trips"))
	assert.Empty(t, s.Get("requests"))
	assert.Empty(t, s.Tables())
}

func TestTables_Sorted(t *testing.T) {
	s := newTestStore()
	s.Insert("trips", record.Record{})
	s.Insert("messages", record.Record{})

	assert.Equal(t, []string{"messages", "trips"}, s.Tables())
}

func TestTxn_Retain(t *testing.T) {
	s := newTestStore()
	s.Seed("trips", []record.Record{
		{"id": "a", "status": "open"},
		{"id": "b", "status": "closed"},
		{"id": "c", "status": "open"},
	})

	var removed []record.Record
	s.Txn(func(tx *Tx) {
		removed = tx.Retain("trips", func(r record.Record) bool { return r["status"] != "open" })
	})

	require.Len(t, removed, 2)
	assert.Equal(t, "a", removed[0].ID())
	assert.Equal(t, "c", removed[1].ID())
	assert.Equal(t, 1, s.Count("trips"))
}

func TestConcurrentInserts(t *testing.T) {
	s := New()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			s.Insert("messages", record.Record{"n": i})
		}(i)
	}
	wg.Wait()

	rows := s.Get("messages")
	require.Len(t, rows, n)

	seen := make(map[string]bool)
	for _, r := range rows {
		assert.False(t, seen[r.ID()], "duplicate id %s", r.ID())
		seen[r.ID()] = true
	}
}
