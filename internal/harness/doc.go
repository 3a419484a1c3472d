// Package harness runs declarative query scenarios against a fresh
// emulator bundle.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: open_trips
//	description: "Only open trips are listed, heaviest first"
//	schema: schema.cue        # optional, relative to the scenario file
//	seed_db: fixtures.db      # optional SQLite snapshot loaded before seed
//	seed:
//	  trips:
//	    - { id: t1, status: open, weight: 5 }
//	    - { id: t2, status: closed, weight: 9 }
//	steps:
//	  - from: trips
//	    op: select
//	    filters:
//	      - { op: eq, column: status, value: open }
//	    order: { column: weight, descending: true }
//	    limit: 5
//	    expect:
//	      count: 1
//	      rows: [{ id: t1 }]
//	assertions:
//	  - type: row_count
//	    table: trips
//	    count: 2
//	  - type: final_state
//	    table: trips
//	    where: { id: t1 }
//	    expect: { status: open }
//
// Step ops are select, insert, update, upsert, delete, single and
// maybe_single. Insert and upsert take a list of rows in values; update
// takes one map. expect.rows is an ordered, per-row subset match;
// expect.error names an error code such as SCHEMA_VIOLATION.
//
// # Assertion Types
//
//   - row_count: the table holds exactly count rows
//   - final_state: exactly one row matches where, and it contains expect
//   - absent: no row matches where
//
// # Deterministic Testing
//
// Every scenario runs on its own client built with
// testutil.DeterministicClock and testutil.SequentialIDs, so generated ids
// and timestamps are identical across runs. Snapshot renders the trace and
// final tables as canonical JSON for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/open_trips.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        fmt.Println(e)
//	    }
//	}
package harness
