package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

func intPtr(n int) *int { return &n }

func tripsScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:        "trips",
		Description: "trips fixture",
		Seed: map[string][]map[string]any{
			"trips": {
				{"id": "t1", "origin": "Lisbon", "status": "open", "weight": 5},
				{"id": "t2", "origin": "Porto", "status": "closed", "weight": 12},
				{"id": "t3", "origin": "lisbon airport", "status": "open", "weight": 8},
			},
		},
		Steps: steps,
	}
}

func TestRun_SelectWithExpect(t *testing.T) {
	scenario := tripsScenario(Step{
		From:    "trips",
		Op:      OpSelect,
		Filters: []FilterSpec{{Op: "eq", Column: "status", Value: "open"}},
		Order:   &OrderSpec{Column: "weight", Descending: true},
		Expect: &ExpectClause{
			Count: intPtr(2),
			Rows:  []map[string]any{{"id": "t3"}, {"id": "t1"}},
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "GET trips?status=eq.open&order=weight.desc", result.Trace[0].Request)
	assert.Len(t, result.State["trips"], 3)
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	scenario := tripsScenario(Step{
		From:    "trips",
		Op:      OpSelect,
		Filters: []FilterSpec{{Op: "eq", Column: "status", Value: "open"}},
		Order:   &OrderSpec{Column: "weight"},
		Expect: &ExpectClause{
			Count: intPtr(1),
			Rows:  []map[string]any{{"id": "t3"}, {"id": "t1"}},
			Error: "NOT_FOUND",
		},
	})

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], `expected error "NOT_FOUND", got ""`)
	assert.Contains(t, result.Errors[1], "expected 1 rows, got 2")
	assert.Contains(t, result.Errors[2], `steps[0].rows[0]: field "id": expected "t3", got "t1"`)
	assert.Contains(t, result.Errors[3], `steps[0].rows[1]`)
}

func TestRun_TotalCount(t *testing.T) {
	scenario := tripsScenario(Step{
		From:   "trips",
		Op:     OpSelect,
		Range:  []int{0, 0},
		Count:  true,
		Expect: &ExpectClause{Count: intPtr(1), Total: intPtr(3)},
	}, Step{
		From:   "trips",
		Op:     OpSelect,
		Expect: &ExpectClause{Total: intPtr(3)},
	})

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1]: expected total 3, but no count was returned")
}

func TestRun_WritesAreDeterministic(t *testing.T) {
	scenario := tripsScenario(Step{
		From:   "trips",
		Op:     OpInsert,
		Values: []any{map[string]any{"origin": "Faro", "status": "open"}},
	})

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, first.Trace[0].Rows, 1)
	row := first.Trace[0].Rows[0]
	assert.Equal(t, "00000000-0000-7000-8000-000000000001", row["id"])
	assert.Equal(t, "2024-01-01T00:00:00.001000Z", row["created_at"])
	assert.Equal(t, row["created_at"], row["updated_at"])
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.State, second.State)
}

func TestRun_FreshClientPerScenario(t *testing.T) {
	insert := tripsScenario(Step{
		From:   "trips",
		Op:     OpInsert,
		Values: []any{map[string]any{"id": "t4", "status": "open"}},
	})
	insert.Assertions = []Assertion{{Type: AssertRowCount, Table: "trips", Count: 4}}

	for i := 0; i < 2; i++ {
		result, err := Run(insert)
		require.NoError(t, err)
		assert.True(t, result.Pass, result.Errors)
	}
}

func TestRun_AllOps(t *testing.T) {
	scenario := tripsScenario(
		Step{
			From:       "trips",
			Op:         OpUpsert,
			OnConflict: "origin",
			Values: []any{
				map[string]any{"origin": "Porto", "status": "open"},
				map[string]any{"origin": "Braga", "status": "pending"},
			},
			Expect: &ExpectClause{Rows: []map[string]any{{"id": "t2", "weight": 12}, {"origin": "Braga"}}},
		},
		Step{
			From:    "trips",
			Op:      OpUpdate,
			Filters: []FilterSpec{{Op: "ilike", Column: "origin", Value: "LISBON%"}},
			Values:  map[string]any{"status": "closed"},
			Expect:  &ExpectClause{Count: intPtr(2)},
		},
		Step{
			From:    "trips",
			Op:      OpDelete,
			Filters: []FilterSpec{{Op: "in", Column: "id", Value: []any{"t1", "t3"}}},
			Expect:  &ExpectClause{Count: intPtr(2)},
		},
		Step{
			From:    "trips",
			Op:      OpSingle,
			Select:  "id",
			Filters: []FilterSpec{{Op: "match", Value: map[string]any{"origin": "Porto", "status": "open"}}},
			Expect:  &ExpectClause{Rows: []map[string]any{{"id": "t2"}}},
		},
		Step{
			From:    "trips",
			Op:      OpMaybeSingle,
			Filters: []FilterSpec{{Op: "eq", Column: "id", Value: "t1"}},
			Expect:  &ExpectClause{Count: intPtr(0)},
		},
	)
	scenario.Assertions = []Assertion{
		{Type: AssertRowCount, Table: "trips", Count: 2},
		{Type: AssertFinalState, Table: "trips", Where: map[string]any{"origin": "Braga"}, Expect: map[string]any{"status": "pending"}},
		{Type: AssertAbsent, Table: "trips", Where: map[string]any{"status": "closed"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, record.Record{"id": "t2"}, result.Trace[3].Rows[0])
	assert.Empty(t, result.Trace[4].Rows)
}

func TestRun_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "trips.cue")
	require.NoError(t, os.WriteFile(schemaPath, []byte(`trips: {
	id:     string
	status: "open" | "closed" | "pending"
	...
}
`), 0644))

	scenario := tripsScenario(Step{
		From:   "trips",
		Op:     OpInsert,
		Values: []any{map[string]any{"id": "t9", "status": "lost"}},
		Expect: &ExpectClause{Error: "SCHEMA_VIOLATION", Count: intPtr(0)},
	})
	scenario.Schema = schemaPath
	scenario.Assertions = []Assertion{{Type: AssertAbsent, Table: "trips", Where: map[string]any{"id": "t9"}}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_BadSchemaIsAnError(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(schemaPath, []byte("trips: {"), 0644))

	scenario := tripsScenario(Step{From: "trips", Op: OpSelect})
	scenario.Schema = schemaPath

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}

func TestRun_BadFilterValueIsAnError(t *testing.T) {
	scenario := tripsScenario(Step{
		From:    "trips",
		Op:      OpSelect,
		Filters: []FilterSpec{{Op: "like", Column: "origin", Value: 5}},
	})

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "like requires a string pattern")
}

func TestExecute_SeedDB(t *testing.T) {
	ctx := context.Background()

	// Produce a snapshot from one run and seed a second run from it.
	first, c, err := Execute(ctx, tripsScenario(Step{From: "trips", Op: OpSelect}), nil)
	require.NoError(t, err)
	require.True(t, first.Pass)

	dbPath := filepath.Join(t.TempDir(), "fixtures.db")
	require.NoError(t, c.Store().SaveSnapshot(ctx, dbPath))

	scenario := &Scenario{
		Name:        "from_snapshot",
		Description: "seed_db rows are visible",
		SeedDB:      dbPath,
		Seed: map[string][]map[string]any{
			"carriers": {{"id": "c1"}},
		},
		Steps: []Step{{
			From:    "trips",
			Op:      OpSelect,
			Filters: []FilterSpec{{Op: "gt", Column: "weight", Value: 6}},
			Expect:  &ExpectClause{Count: intPtr(2)},
		}},
		Assertions: []Assertion{{Type: AssertRowCount, Table: "carriers", Count: 1}},
	}

	result, _, err := Execute(ctx, scenario, nil)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_ExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, result.Errors)
		})
	}
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResult_AddTrace(t *testing.T) {
	r := NewResult()
	r.AddTrace(TraceEvent{Step: 0, Op: OpSelect})
	r.AddTrace(TraceEvent{Step: 1, Op: OpDelete})

	require.Len(t, r.Trace, 2)
	assert.Equal(t, OpDelete, r.Trace[1].Op)
}
