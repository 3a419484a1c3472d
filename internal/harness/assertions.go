package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Table    string       // Table the assertion inspected
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s on %s\n", e.Type, e.Table)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, event.Request)
		}
	}

	return buf.String()
}

// assertRowCount checks the number of rows in a table.
func assertRowCount(result *Result, a Assertion) error {
	got := len(result.State[a.Table])
	if got == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Table:    a.Table,
		Expected: fmt.Sprintf("%d rows", a.Count),
		Actual:   fmt.Sprintf("%d rows", got),
		Trace:    result.Trace,
	}
}

// assertFinalState finds exactly one row matching Where and verifies the
// expected fields (subset match).
func assertFinalState(result *Result, a Assertion) error {
	matches := whereMatches(result.State[a.Table], a.Where)

	if len(matches) != 1 {
		return &AssertionError{
			Type:     AssertFinalState,
			Table:    a.Table,
			Expected: fmt.Sprintf("exactly 1 row where %s", formatWhere(a.Where)),
			Actual:   fmt.Sprintf("%d rows", len(matches)),
			Trace:    result.Trace,
		}
	}

	row := matches[0]
	if field, ok := matchSubset(row, a.Expect); !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Table:    a.Table,
			Expected: fmt.Sprintf("%s = %s", field, record.Key(a.Expect[field])),
			Actual:   fmt.Sprintf("%s = %s", field, record.Key(row[field])),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertAbsent checks that no row matches Where.
func assertAbsent(result *Result, a Assertion) error {
	matches := whereMatches(result.State[a.Table], a.Where)
	if len(matches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Table:    a.Table,
		Expected: fmt.Sprintf("no rows where %s", formatWhere(a.Where)),
		Actual:   fmt.Sprintf("%d rows", len(matches)),
		Trace:    result.Trace,
	}
}

func whereMatches(rows []record.Record, where map[string]any) []record.Record {
	var out []record.Record
	for _, row := range rows {
		if _, ok := matchSubset(row, where); ok {
			out = append(out, row)
		}
	}
	return out
}

// matchSubset reports whether every expected field equals the row's value.
// On mismatch it returns the first failing field in sorted order. A field
// expected as null matches a missing field.
func matchSubset(row record.Record, expected map[string]any) (string, bool) {
	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !record.Equal(row[k], record.Normalize(expected[k])) {
			return k, false
		}
	}
	return "", true
}

// formatWhere renders a where clause for error messages.
func formatWhere(where map[string]any) string {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = %s", k, record.Key(where[k]))
	}
	return strings.Join(parts, " AND ")
}

// EvaluateAssertions runs all assertions against the final tables in the
// result and returns error messages for failures. Each assertion is
// evaluated independently; all failures are reported.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRowCount:
			err = assertRowCount(result, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertAbsent:
			err = assertAbsent(result, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}

	return errs
}
