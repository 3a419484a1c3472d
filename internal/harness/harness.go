package harness

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/SpareCarry/sparecarry-sub004/internal/client"
	"github.com/SpareCarry/sparecarry-sub004/internal/query"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
	"github.com/SpareCarry/sparecarry-sub004/internal/schema"
	"github.com/SpareCarry/sparecarry-sub004/internal/testutil"
)

// Harness executes one scenario against its own client.
type Harness struct {
	client *client.Client
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh client with a deterministic clock and id
// sequence, so repeated runs produce identical traces.
//
// Execution flow:
// 1. Compile the scenario schema, if any
// 2. Load seed_db, then seed rows
// 3. Execute steps with expect validation
// 4. Evaluate assertions against the final tables
func Run(scenario *Scenario) (*Result, error) {
	result, _, err := Execute(context.Background(), scenario, nil)
	return result, err
}

// Execute is Run with a context and logger. It also returns the client so
// callers can inspect or persist the final tables. A nil logger discards
// output.
//
// Go errors are reserved for scenarios that cannot be executed (unreadable
// schema or snapshot, malformed filter values); failed expectations are
// reported in Result.Errors.
func Execute(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, *client.Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []client.Option{
		client.WithClock(testutil.NewDeterministicClock()),
		client.WithIDGenerator(testutil.NewSequentialIDs()),
		client.WithLogger(logger),
	}
	if scenario.Schema != "" {
		reg, err := schema.Load(scenario.Schema)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load schema: %w", err)
		}
		opts = append(opts, client.WithSchemas(reg))
	}

	h := &Harness{client: client.New(opts...), logger: logger}

	if err := h.seed(ctx, scenario); err != nil {
		return nil, nil, fmt.Errorf("failed to seed: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	st := h.client.Store()
	for _, table := range st.Tables() {
		result.State[table] = st.Get(table)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario finished",
		"scenario", scenario.Name,
		"steps", len(scenario.Steps),
		"pass", result.Pass,
	)
	return result, h.client, nil
}

func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	if scenario.SeedDB != "" {
		if err := h.client.Store().LoadSnapshot(ctx, scenario.SeedDB); err != nil {
			return err
		}
	}

	tables := make([]string, 0, len(scenario.Seed))
	for t := range scenario.Seed {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, t := range tables {
		rows := make([]record.Record, 0, len(scenario.Seed[t]))
		for _, m := range scenario.Seed[t] {
			rows = append(rows, record.New(m))
		}
		h.client.Seed(t, rows)
		h.logger.Debug("seeded table", "table", t, "rows", len(rows))
	}
	return nil
}

// executeStep runs one chain, records it in the trace and checks its
// expect clause.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	b, err := buildChain(h.client, step)
	if err != nil {
		return err
	}

	ev := TraceEvent{
		Step:    index,
		Op:      step.Op,
		Request: b.Descriptor().String(),
	}

	switch step.Op {
	case OpSingle, OpMaybeSingle:
		var res query.SingleResult
		if step.Op == OpSingle {
			res = b.Single(ctx)
		} else {
			res = b.MaybeSingle(ctx)
		}
		ev.Rows = []record.Record{}
		if res.Data != nil {
			ev.Rows = append(ev.Rows, res.Data)
		}
		if res.Error != nil {
			ev.Error = string(res.Error.Code)
		}
	default:
		res := b.Execute(ctx)
		ev.Rows = res.Data
		if ev.Rows == nil {
			ev.Rows = []record.Record{}
		}
		ev.Count = res.Count
		if res.Error != nil {
			ev.Error = string(res.Error.Code)
		}
	}

	result.AddTrace(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(index, step.Expect, ev) {
			result.AddError(msg)
		}
	}

	h.logger.Info("step completed",
		"step", index,
		"request", ev.Request,
		"rows", len(ev.Rows),
		"error", ev.Error,
	)
	return nil
}

// buildChain translates a step into a query chain.
func buildChain(c *client.Client, step Step) (query.Builder, error) {
	b := c.From(step.From)

	switch step.Op {
	case OpInsert, OpUpsert:
		maps, err := rowsValue(step.Values)
		if err != nil {
			return b, err
		}
		rows := make([]record.Record, len(maps))
		for i, m := range maps {
			rows[i] = record.New(m)
		}
		if step.Op == OpInsert {
			b = b.Insert(rows...)
		} else {
			b = b.Upsert(rows...)
		}
	case OpUpdate:
		m, ok := step.Values.(map[string]any)
		if !ok {
			return b, fmt.Errorf("update requires a map in values")
		}
		b = b.Update(record.New(m))
	case OpDelete:
		b = b.Delete()
	}

	if step.OnConflict != "" {
		b = b.OnConflict(step.OnConflict)
	}
	if step.Select != "" {
		b = b.Select(step.Select)
	}
	if step.Count {
		b = b.WithCount()
	}

	for j, f := range step.Filters {
		next, err := applyFilter(b, f)
		if err != nil {
			return b, fmt.Errorf("filters[%d]: %w", j, err)
		}
		b = next
	}

	if step.Order != nil {
		b = b.Order(step.Order.Column, !step.Order.Descending)
	}
	if len(step.Range) == 2 {
		b = b.Range(step.Range[0], step.Range[1])
	}
	if step.Limit != nil {
		b = b.Limit(*step.Limit)
	}
	return b, nil
}

func applyFilter(b query.Builder, f FilterSpec) (query.Builder, error) {
	switch f.Op {
	case "eq":
		return b.Eq(f.Column, f.Value), nil
	case "neq":
		return b.Neq(f.Column, f.Value), nil
	case "gt":
		return b.Gt(f.Column, f.Value), nil
	case "gte":
		return b.Gte(f.Column, f.Value), nil
	case "lt":
		return b.Lt(f.Column, f.Value), nil
	case "lte":
		return b.Lte(f.Column, f.Value), nil
	case "is":
		return b.Is(f.Column, f.Value), nil
	case "contains":
		return b.Contains(f.Column, f.Value), nil
	case "like", "ilike":
		pattern, ok := f.Value.(string)
		if !ok {
			return b, fmt.Errorf("%s requires a string pattern, got %T", f.Op, f.Value)
		}
		if f.Op == "like" {
			return b.Like(f.Column, pattern), nil
		}
		return b.ILike(f.Column, pattern), nil
	case "in":
		values, ok := f.Value.([]any)
		if !ok {
			return b, fmt.Errorf("in requires a list value, got %T", f.Value)
		}
		return b.In(f.Column, values), nil
	case "match":
		m, ok := f.Value.(map[string]any)
		if !ok {
			return b, fmt.Errorf("match requires a map value, got %T", f.Value)
		}
		return b.Match(m), nil
	case "or":
		return b.Or(f.Expr), nil
	default:
		return b, fmt.Errorf("unknown filter op %q", f.Op)
	}
}

// checkExpect compares a traced step with its expect clause.
func checkExpect(index int, want *ExpectClause, ev TraceEvent) []string {
	var errs []string

	if want.Error != ev.Error {
		errs = append(errs, fmt.Sprintf("steps[%d]: expected error %q, got %q", index, want.Error, ev.Error))
	}

	if want.Count != nil && *want.Count != len(ev.Rows) {
		errs = append(errs, fmt.Sprintf("steps[%d]: expected %d rows, got %d", index, *want.Count, len(ev.Rows)))
	}

	if want.Total != nil {
		switch {
		case ev.Count == nil:
			errs = append(errs, fmt.Sprintf("steps[%d]: expected total %d, but no count was returned", index, *want.Total))
		case *ev.Count != *want.Total:
			errs = append(errs, fmt.Sprintf("steps[%d]: expected total %d, got %d", index, *want.Total, *ev.Count))
		}
	}

	if want.Rows != nil {
		if len(want.Rows) != len(ev.Rows) {
			errs = append(errs, fmt.Sprintf("steps[%d]: expected %d rows, got %d", index, len(want.Rows), len(ev.Rows)))
			return errs
		}
		for i, expected := range want.Rows {
			if field, ok := matchSubset(ev.Rows[i], expected); !ok {
				errs = append(errs, fmt.Sprintf("steps[%d].rows[%d]: field %q: expected %s, got %s",
					index, i, field, record.Key(expected[field]), record.Key(ev.Rows[i][field])))
			}
		}
	}
	return errs
}
