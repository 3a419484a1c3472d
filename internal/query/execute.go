package query

import (
	"context"
	"sort"

	"github.com/SpareCarry/sparecarry-sub004/internal/apierr"
	"github.com/SpareCarry/sparecarry-sub004/internal/record"
	"github.com/SpareCarry/sparecarry-sub004/internal/store"
)

// Result is the {data, error} outcome of a resolved chain.
type Result struct {
	// Data holds the selected or written rows. It is non-nil whenever Error
	// is nil.
	Data []record.Record `json:"data"`

	// Count is set when WithCount was requested.
	Count *int `json:"count,omitempty"`

	Error *apierr.Error `json:"error"`
}

// SingleResult is the outcome of Single and MaybeSingle. Data is nil when no
// row qualifies; that is not an error.
type SingleResult struct {
	Data  record.Record `json:"data"`
	Error *apierr.Error `json:"error"`
}

// Execute runs the chain against the store and returns copies of the
// resulting rows. Each call runs the chain again.
func (b Builder) Execute(ctx context.Context) Result {
	d := b.desc

	for _, w := range Validate(d).Warnings {
		b.logger.WarnContext(ctx, "query warning", "query", d.String(), "warning", w)
	}

	var res Result
	b.store.Txn(func(tx *store.Tx) {
		switch d.Op {
		case OpInsert:
			res = b.insert(tx, d)
		case OpUpdate:
			res = b.update(tx, d)
		case OpUpsert:
			res = b.upsert(tx, d)
		case OpDelete:
			res = b.delete(tx, d)
		default:
			res = b.selectRows(tx, d)
		}
	})

	if res.Error != nil {
		b.logger.DebugContext(ctx, "query rejected", "query", d.String(), "error", res.Error)
		return res
	}

	if len(d.Columns) > 0 {
		for i, r := range res.Data {
			res.Data[i] = r.Project(d.Columns)
		}
	}

	b.logger.DebugContext(ctx, "query executed", "query", d.String(), "rows", len(res.Data))
	return res
}

// Single returns the first resulting row, or nil data when there is none.
// Multiple rows are not an error.
func (b Builder) Single(ctx context.Context) SingleResult {
	res := b.Execute(ctx)
	if res.Error != nil {
		return SingleResult{Error: res.Error}
	}
	if len(res.Data) == 0 {
		return SingleResult{}
	}
	return SingleResult{Data: res.Data[0]}
}

// MaybeSingle returns the resulting row only when exactly one qualifies.
func (b Builder) MaybeSingle(ctx context.Context) SingleResult {
	res := b.Execute(ctx)
	if res.Error != nil {
		return SingleResult{Error: res.Error}
	}
	if len(res.Data) != 1 {
		return SingleResult{}
	}
	return SingleResult{Data: res.Data[0]}
}

// check runs the validator over every candidate. The first failure rejects
// the whole write.
func (b Builder) check(table string, candidates []record.Record) *apierr.Error {
	if b.validator == nil {
		return nil
	}
	for _, c := range candidates {
		if err := b.validator.Validate(table, c); err != nil {
			return apierr.SchemaViolation(table, err)
		}
	}
	return nil
}

// fill builds the stored form of a new row: normalized, with id, created_at
// and updated_at filled when absent.
func fill(tx *store.Tx, row record.Record) record.Record {
	out := record.New(row)
	if !out.Has(record.FieldID) {
		out[record.FieldID] = tx.NewID()
	}
	ts := tx.Timestamp()
	if !out.Has(record.FieldCreatedAt) {
		out[record.FieldCreatedAt] = ts
	}
	if !out.Has(record.FieldUpdatedAt) {
		out[record.FieldUpdatedAt] = ts
	}
	return out
}

func (b Builder) insert(tx *store.Tx, d Descriptor) Result {
	candidates := make([]record.Record, 0, len(d.Rows))
	for _, row := range d.Rows {
		candidates = append(candidates, fill(tx, row))
	}
	if err := b.check(d.Table, candidates); err != nil {
		return Result{Error: err}
	}

	data := make([]record.Record, 0, len(candidates))
	for _, c := range candidates {
		data = append(data, record.Clone(tx.Insert(d.Table, c)))
	}
	return withCount(d, Result{Data: data})
}

// merged returns live with partial applied and updated_at moved past its
// previous value, without touching live.
func merged(tx *store.Tx, live, partial record.Record) record.Record {
	out := record.Clone(live)
	out.Merge(record.New(partial))
	out[record.FieldUpdatedAt] = tx.NextUpdatedAt(live[record.FieldUpdatedAt])
	return out
}

func (b Builder) update(tx *store.Tx, d Descriptor) Result {
	targets := Apply(d.Filters, tx.Scan(d.Table))

	candidates := make([]record.Record, len(targets))
	for i, live := range targets {
		candidates[i] = merged(tx, live, d.Patch)
	}
	if err := b.check(d.Table, candidates); err != nil {
		return Result{Error: err}
	}

	data := make([]record.Record, 0, len(targets))
	for i, live := range targets {
		live.Merge(candidates[i])
		data = append(data, record.Clone(live))
	}
	return withCount(d, Result{Data: data})
}

// upsertStep is one planned upsert write: a merge into live, or an insert
// when live is nil.
type upsertStep struct {
	live      record.Record
	candidate record.Record
}

func (b Builder) upsert(tx *store.Tx, d Descriptor) Result {
	column := d.conflictColumn()

	// Rows sharing a conflict key within one payload collapse into a single
	// write, later rows merging over earlier ones.
	steps := make([]*upsertStep, 0, len(d.Rows))
	planned := make(map[string]*upsertStep)
	for _, row := range d.Rows {
		row = record.New(row)
		key, hasKey := "", row.Has(column)
		if hasKey {
			key = record.Key(row[column])
			if step, ok := planned[key]; ok {
				prev := step.candidate[record.FieldUpdatedAt]
				step.candidate.Merge(row)
				step.candidate[record.FieldUpdatedAt] = tx.NextUpdatedAt(prev)
				continue
			}
		}

		var step *upsertStep
		if live, ok := tx.Find(d.Table, column, row[column]); hasKey && ok {
			step = &upsertStep{live: live, candidate: merged(tx, live, row)}
		} else {
			step = &upsertStep{candidate: fill(tx, row)}
		}
		steps = append(steps, step)
		if hasKey {
			planned[key] = step
		}
	}

	candidates := make([]record.Record, len(steps))
	for i, s := range steps {
		candidates[i] = s.candidate
	}
	if err := b.check(d.Table, candidates); err != nil {
		return Result{Error: err}
	}

	data := make([]record.Record, 0, len(steps))
	for _, s := range steps {
		if s.live != nil {
			s.live.Merge(s.candidate)
			data = append(data, record.Clone(s.live))
			continue
		}
		data = append(data, record.Clone(tx.Insert(d.Table, s.candidate)))
	}
	return withCount(d, Result{Data: data})
}

func (b Builder) delete(tx *store.Tx, d Descriptor) Result {
	removed := tx.Retain(d.Table, func(r record.Record) bool {
		return !MatchesAll(d.Filters, r)
	})
	data := record.CloneAll(removed)
	return withCount(d, Result{Data: data})
}

func (b Builder) selectRows(tx *store.Tx, d Descriptor) Result {
	rows := record.CloneAll(Apply(d.Filters, tx.Scan(d.Table)))

	if d.Order != nil {
		sortRows(rows, *d.Order)
	}

	var count *int
	if d.Count {
		n := len(rows)
		count = &n
	}

	return Result{Data: paginate(rows, d), Count: count}
}

func withCount(d Descriptor, res Result) Result {
	if d.Count {
		n := len(res.Data)
		res.Count = &n
	}
	return res
}

// sortRows stably sorts rows by one column. Nulls sort last ascending and
// first descending. Values of different kinds compare by their text form.
func sortRows(rows []record.Record, o Ordering) {
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareForOrder(rows[i][o.Column], rows[j][o.Column])
		if !o.Ascending {
			c = -c
		}
		return c < 0
	})
}

func compareForOrder(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	if c, ok := record.Compare(a, b); ok {
		return c
	}
	sa, sb := record.String(a), record.String(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

// paginate applies Range, or Limit when no Range is set.
func paginate(rows []record.Record, d Descriptor) []record.Record {
	switch {
	case d.Range != nil:
		from, to := d.Range.From, d.Range.To+1
		if from < 0 {
			from = 0
		}
		if to > len(rows) {
			to = len(rows)
		}
		if from >= to {
			return []record.Record{}
		}
		return rows[from:to]
	case d.Limit != nil:
		n := *d.Limit
		if n < 0 {
			n = 0
		}
		if n < len(rows) {
			return rows[:n]
		}
	}
	return rows
}
