package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a fixture scenario: seed data, a sequence of query
// steps with optional expectations, and assertions on the final tables.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is an optional CUE schema file applied to writes.
	// Relative paths are resolved against the scenario file.
	Schema string `yaml:"schema,omitempty"`

	// SeedDB is an optional SQLite snapshot loaded before Seed.
	SeedDB string `yaml:"seed_db,omitempty"`

	// Seed holds rows per table. Seeded rows bypass schemas.
	Seed map[string][]map[string]any `yaml:"seed,omitempty"`

	// Steps are executed in order against a fresh client.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final tables.
	// Supported types: row_count, final_state, absent
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one query chain.
type Step struct {
	// From is the table the chain starts on.
	From string `yaml:"from"`

	// Op is select (default), insert, update, upsert, delete, single or
	// maybe_single.
	Op string `yaml:"op,omitempty"`

	// Select is the column list, "*" or empty for all columns.
	Select string `yaml:"select,omitempty"`

	Filters []FilterSpec `yaml:"filters,omitempty"`
	Order   *OrderSpec   `yaml:"order,omitempty"`

	// Range is an inclusive [from, to] pair.
	Range []int `yaml:"range,omitempty"`
	Limit *int  `yaml:"limit,omitempty"`
	Count bool  `yaml:"count,omitempty"`

	// OnConflict names the upsert conflict column.
	OnConflict string `yaml:"on_conflict,omitempty"`

	// Values is a list of rows for insert and upsert, or one map for
	// update.
	Values any `yaml:"values,omitempty"`

	// Expect validates the step result. If nil, no validation is
	// performed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// FilterSpec is one filter in a step.
type FilterSpec struct {
	// Op is the filter operator: eq, neq, gt, gte, lt, lte, like, ilike,
	// is, in, contains, or, match.
	Op     string `yaml:"op"`
	Column string `yaml:"column,omitempty"`
	Value  any    `yaml:"value,omitempty"`

	// Expr is the raw expression for or.
	Expr string `yaml:"expr,omitempty"`
}

// OrderSpec sorts the result on one column.
type OrderSpec struct {
	Column     string `yaml:"column"`
	Descending bool   `yaml:"descending,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// Count is the expected number of returned rows.
	Count *int `yaml:"count,omitempty"`

	// Total is the expected exact count reported with count: true.
	Total *int `yaml:"total,omitempty"`

	// Rows is matched in order; each entry is a subset of the returned row.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Error is the expected error code. Empty means no error.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the final tables.
type Assertion struct {
	// Type specifies the assertion type:
	// - "row_count": table holds exactly Count rows
	// - "final_state": exactly one row matches Where and contains Expect
	// - "absent": no row matches Where
	Type string `yaml:"type"`

	Table string `yaml:"table"`

	// Where specifies equality filters (final_state, absent).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect contains expected field values (final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]any `yaml:"expect,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRowCount   = "row_count"
	AssertFinalState = "final_state"
	AssertAbsent     = "absent"
)

// Step op constants.
const (
	OpSelect      = "select"
	OpInsert      = "insert"
	OpUpdate      = "update"
	OpUpsert      = "upsert"
	OpDelete      = "delete"
	OpSingle      = "single"
	OpMaybeSingle = "maybe_single"
)

var validOps = map[string]bool{
	OpSelect: true, OpInsert: true, OpUpdate: true, OpUpsert: true,
	OpDelete: true, OpSingle: true, OpMaybeSingle: true,
}

var validFilterOps = map[string]bool{
	"eq": true, "neq": true, "gt": true, "gte": true, "lt": true, "lte": true,
	"like": true, "ilike": true, "is": true, "in": true, "contains": true,
	"or": true, "match": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Schema and seed_db paths are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative file references
// against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	scenario.Schema = resolve(baseDir, scenario.Schema)
	scenario.SeedDB = resolve(baseDir, scenario.SeedDB)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for _, p := range []string{s.Schema, s.SeedDB} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}

	for table := range s.Seed {
		if table == "" {
			return fmt.Errorf("seed: table name is required")
		}
	}

	for i := range s.Steps {
		if err := validateStep(i, &s.Steps[i]); err != nil {
			return err
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	if st.From == "" {
		return fmt.Errorf("steps[%d]: from is required", index)
	}
	if st.Op == "" {
		st.Op = OpSelect
	}
	if !validOps[st.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	switch st.Op {
	case OpInsert, OpUpsert:
		if _, err := rowsValue(st.Values); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	case OpUpdate:
		if _, ok := st.Values.(map[string]any); !ok {
			return fmt.Errorf("steps[%d]: update requires a map in values", index)
		}
	default:
		if st.Values != nil {
			return fmt.Errorf("steps[%d]: values is not used by %s", index, st.Op)
		}
	}

	if st.Range != nil && len(st.Range) != 2 {
		return fmt.Errorf("steps[%d]: range must be [from, to]", index)
	}
	if st.Order != nil && st.Order.Column == "" {
		return fmt.Errorf("steps[%d].order: column is required", index)
	}

	for j, f := range st.Filters {
		if !validFilterOps[f.Op] {
			return fmt.Errorf("steps[%d].filters[%d]: unknown op %q", index, j, f.Op)
		}
		switch f.Op {
		case "or":
			if f.Expr == "" {
				return fmt.Errorf("steps[%d].filters[%d]: expr is required for or", index, j)
			}
		case "match":
			if _, ok := f.Value.(map[string]any); !ok {
				return fmt.Errorf("steps[%d].filters[%d]: match requires a map value", index, j)
			}
		case "in":
			if f.Column == "" {
				return fmt.Errorf("steps[%d].filters[%d]: column is required", index, j)
			}
			if _, ok := f.Value.([]any); !ok {
				return fmt.Errorf("steps[%d].filters[%d]: in requires a list value", index, j)
			}
		default:
			if f.Column == "" {
				return fmt.Errorf("steps[%d].filters[%d]: column is required", index, j)
			}
		}
	}
	return nil
}

// rowsValue accepts a list of maps.
func rowsValue(v any) ([]map[string]any, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("values must be a non-empty list of rows")
	}
	rows := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("values[%d] must be a map", i)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Table == "" {
		return fmt.Errorf("assertions[%d]: table is required", index)
	}

	switch a.Type {
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertFinalState:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertAbsent:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for absent", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
