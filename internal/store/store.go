package store

import (
	"sort"
	"sync"
	"time"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Store is the process-wide table registry. Create one per test bundle; the
// zero value is not usable.
type Store struct {
	mu     sync.Mutex
	tables map[string][]record.Record
	clock  Clock
	ids    IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithIDGenerator overrides the id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		tables: make(map[string][]record.Record),
		clock:  NewMonotonicClock(),
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a snapshot of the table's rows in insertion order. Unknown
// tables yield an empty, non-nil slice. The returned records are copies;
// mutating them does not touch the store.
func (s *Store) Get(table string) []record.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record.CloneAll(s.tables[table])
}

// Insert appends a record, assigning id and created_at when absent, and
// returns a copy of the stored record including generated fields.
func (s *Store) Insert(table string, rec record.Record) record.Record {
	var out record.Record
	s.Txn(func(tx *Tx) {
		out = record.Clone(tx.Insert(table, rec))
	})
	return out
}

// Update merges partial into the record with the given id and refreshes
// updated_at. ok is false when no record matches.
func (s *Store) Update(table, id string, partial record.Record) (rec record.Record, ok bool) {
	s.Txn(func(tx *Tx) {
		var live record.Record
		live, ok = tx.Update(table, id, partial)
		if ok {
			rec = record.Clone(live)
		}
	})
	return rec, ok
}

// Delete removes the record with the given id and reports whether one was
// removed.
func (s *Store) Delete(table, id string) bool {
	var removed bool
	s.Txn(func(tx *Tx) {
		_, removed = tx.Delete(table, id)
	})
	return removed
}

// Seed replaces a table's contents wholesale. Records are stored as given:
// no id or timestamp is generated.
func (s *Store) Seed(table string, recs []record.Record) {
	rows := make([]record.Record, len(recs))
	for i, r := range recs {
		rows[i] = record.New(r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = rows
}

// Reset clears every table.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = make(map[string][]record.Record)
}

// Tables returns the names of all tables holding at least one row, sorted.
func (s *Store) Tables() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tables))
	for name, rows := range s.tables {
		if len(rows) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of rows in a table.
func (s *Store) Count(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables[table])
}

// Txn runs fn with exclusive access to the store. fn must not call other
// Store methods (the lock is not reentrant) and must not retain the Tx or
// any live record after returning.
func (s *Store) Txn(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Tx is exclusive access to the store for the duration of one Txn call.
// Records returned by Tx methods are live: mutating them mutates the store.
type Tx struct {
	s *Store
}

// Scan returns the live rows of a table.
func (tx *Tx) Scan(table string) []record.Record {
	return tx.s.tables[table]
}

// Timestamp returns the next formatted timestamp from the store clock.
func (tx *Tx) Timestamp() string {
	return record.FormatTime(tx.s.clock.Now())
}

// NewID returns a fresh identifier from the store generator.
func (tx *Tx) NewID() string {
	return tx.s.ids.Generate()
}

// Insert appends a normalized copy of rec, filling id and created_at when
// absent, and returns the live stored record.
func (tx *Tx) Insert(table string, rec record.Record) record.Record {
	stored := record.New(rec)
	if !stored.Has(record.FieldID) {
		stored[record.FieldID] = tx.NewID()
	}
	if !stored.Has(record.FieldCreatedAt) {
		stored[record.FieldCreatedAt] = tx.Timestamp()
	}
	tx.s.tables[table] = append(tx.s.tables[table], stored)
	return stored
}

// Find returns the first live record whose column equals value.
func (tx *Tx) Find(table, column string, value any) (record.Record, bool) {
	for _, r := range tx.s.tables[table] {
		if v, ok := r[column]; ok && record.Equal(v, value) {
			return r, true
		}
	}
	return nil, false
}

// Merge merges partial into a live record and refreshes updated_at.
func (tx *Tx) Merge(live, partial record.Record) {
	prev := live[record.FieldUpdatedAt]
	live.Merge(record.New(partial))
	live[record.FieldUpdatedAt] = tx.NextUpdatedAt(prev)
}

// NextUpdatedAt returns a fresh timestamp for a row whose updated_at was
// prev. The result is always later than prev, so rows seeded with a
// future updated_at still move forward.
func (tx *Tx) NextUpdatedAt(prev any) string {
	now := tx.s.clock.Now().UTC().Truncate(time.Microsecond)
	if last, ok := parseStamp(prev); ok && !now.After(last) {
		now = last.Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return record.FormatTime(now)
}

func parseStamp(v any) (time.Time, bool) {
	switch s := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	case time.Time:
		return s.UTC(), true
	}
	return time.Time{}, false
}

// Update merges partial into the record with the given id.
func (tx *Tx) Update(table, id string, partial record.Record) (record.Record, bool) {
	live, ok := tx.Find(table, record.FieldID, id)
	if !ok {
		return nil, false
	}
	tx.Merge(live, partial)
	return live, true
}

// Delete removes the first record with the given id and returns it.
func (tx *Tx) Delete(table, id string) (record.Record, bool) {
	rows := tx.s.tables[table]
	for i, r := range rows {
		if v, ok := r[record.FieldID]; ok && record.Equal(v, id) {
			tx.s.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return r, true
		}
	}
	return nil, false
}

// Retain keeps the rows for which keep returns true and returns the removed
// rows in their original order.
func (tx *Tx) Retain(table string, keep func(record.Record) bool) []record.Record {
	rows := tx.s.tables[table]
	kept := make([]record.Record, 0, len(rows))
	var removed []record.Record
	for _, r := range rows {
		if keep(r) {
			kept = append(kept, r)
		} else {
			removed = append(removed, r)
		}
	}
	if len(rows) > 0 {
		tx.s.tables[table] = kept
	}
	return removed
}
