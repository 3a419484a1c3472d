package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Snapshot renders the trace and final tables of a run as canonical JSON.
// Generated ids and timestamps are deterministic, so the bytes are stable
// across runs and suitable for golden comparison.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		m := map[string]any{
			"step":    ev.Step,
			"op":      ev.Op,
			"request": ev.Request,
			"rows":    ev.Rows,
		}
		if ev.Count != nil {
			m["count"] = *ev.Count
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	state := make(map[string]any, len(result.State))
	for table, rows := range result.State {
		state[table] = rows
	}

	return record.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         trace,
		"state":         state,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
