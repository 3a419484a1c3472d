package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs generates UUID-shaped identifiers from a counter:
// 00000000-0000-7000-8000-000000000001, ...000002 and so on.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with a fresh SequentialIDs produces byte-identical rows.
//
// Thread-safety: safe for concurrent use.
type SequentialIDs struct {
	mu sync.Mutex
	n  int64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Generate returns the next id.
//
// Implements store.IDGenerator.
func (g *SequentialIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", g.n)
}

// Reset restarts the sequence.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// FixedIDGenerator returns the same id every time. Useful when a test only
// needs to know the id a single insert will receive.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator for id. If id is empty, Generate()
// returns "test-id-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-id-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
