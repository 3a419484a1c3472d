package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

func TestRunWithGolden_OpenTrips(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/open_trips.yaml")
	require.NoError(t, err)

	// Regenerate with:
	//   go test ./internal/harness -run TestRunWithGolden_OpenTrips -update
	require.NoError(t, RunWithGolden(t, scenario))
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/upsert_and_delete.yaml")
	require.NoError(t, err)

	var outputs [][]byte
	for i := 0; i < 3; i++ {
		result, err := Run(scenario)
		require.NoError(t, err)
		data, err := Snapshot(scenario.Name, result)
		require.NoError(t, err)
		outputs = append(outputs, data)
	}

	assert.Equal(t, outputs[0], outputs[1])
	assert.Equal(t, outputs[1], outputs[2])
}

func TestSnapshot_Format(t *testing.T) {
	count := 2
	result := NewResult()
	result.AddTrace(TraceEvent{
		Step:    0,
		Op:      OpSelect,
		Request: "GET trips?limit=1",
		Rows:    []record.Record{{"id": "t1", "weight": int64(5)}},
		Count:   &count,
	})
	result.AddTrace(TraceEvent{
		Step:    1,
		Op:      OpInsert,
		Request: "POST trips",
		Rows:    []record.Record{},
		Error:   "SCHEMA_VIOLATION",
	})
	result.State["trips"] = []record.Record{{"id": "t1", "weight": int64(5)}}

	data, err := Snapshot("format", result)
	require.NoError(t, err)

	want := `{"scenario_name":"format",` +
		`"state":{"trips":[{"id":"t1","weight":5}]},` +
		`"trace":[` +
		`{"count":2,"op":"select","request":"GET trips?limit=1","rows":[{"id":"t1","weight":5}],"step":0},` +
		`{"error":"SCHEMA_VIOLATION","op":"insert","request":"POST trips","rows":[],"step":1}]}`
	assert.Equal(t, want, string(data))
}
