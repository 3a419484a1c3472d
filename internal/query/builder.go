package query

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
	"github.com/SpareCarry/sparecarry-sub004/internal/store"
)

// Validator checks a record about to be written to a table. Returning an
// error rejects the whole write.
type Validator interface {
	Validate(table string, rec record.Record) error
}

// Builder is an immutable query chain over one table. The zero value is not
// usable; construct with New.
type Builder struct {
	store     *store.Store
	validator Validator
	logger    *slog.Logger
	desc      Descriptor
}

// Option configures a Builder.
type Option func(*Builder)

// WithValidator sets the write validator (nil disables validation).
func WithValidator(v Validator) Option {
	return func(b *Builder) { b.validator = v }
}

// WithLogger sets the logger used for warnings and execution traces.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// New starts a select chain on table.
func New(s *store.Store, table string, opts ...Option) Builder {
	b := Builder{
		store:  s,
		logger: slog.Default(),
		desc:   Descriptor{Table: table, Op: OpSelect},
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Descriptor returns a copy of the accumulated descriptor.
func (b Builder) Descriptor() Descriptor {
	return b.desc.clone()
}

// with returns a derived builder after applying fn to a copy of the
// descriptor.
func (b Builder) with(fn func(d *Descriptor)) Builder {
	next := b
	next.desc = b.desc.clone()
	fn(&next.desc)
	return next
}

func (b Builder) filter(f Filter) Builder {
	return b.with(func(d *Descriptor) { d.Filters = append(d.Filters, f) })
}

// Select sets the column projection ("*" or "" keeps every column). It does
// not change the operation kind, so Insert(...).Select("*") still inserts and
// returns the inserted rows.
func (b Builder) Select(columns string) Builder {
	return b.with(func(d *Descriptor) { d.Columns = parseColumns(columns) })
}

// WithCount requests an exact count of the filtered rows in Result.Count.
func (b Builder) WithCount() Builder {
	return b.with(func(d *Descriptor) { d.Count = true })
}

// Insert makes the chain an insert of rows.
func (b Builder) Insert(rows ...record.Record) Builder {
	return b.with(func(d *Descriptor) {
		d.Op = OpInsert
		d.Rows = rows
	})
}

// Update makes the chain an update merging partial into every match.
func (b Builder) Update(partial record.Record) Builder {
	return b.with(func(d *Descriptor) {
		d.Op = OpUpdate
		d.Patch = partial
	})
}

// Upsert makes the chain an upsert of rows.
func (b Builder) Upsert(rows ...record.Record) Builder {
	return b.with(func(d *Descriptor) {
		d.Op = OpUpsert
		d.Rows = rows
	})
}

// OnConflict sets the upsert match column.
func (b Builder) OnConflict(column string) Builder {
	return b.with(func(d *Descriptor) { d.OnConflict = column })
}

// Delete makes the chain a delete of every match.
func (b Builder) Delete() Builder {
	return b.with(func(d *Descriptor) { d.Op = OpDelete })
}

// Eq keeps rows whose column equals value.
func (b Builder) Eq(column string, value any) Builder {
	return b.filter(Eq{Column: column, Value: record.Normalize(value)})
}

// Neq keeps rows whose column differs from value. A missing column counts as null.
func (b Builder) Neq(column string, value any) Builder {
	return b.filter(Neq{Column: column, Value: record.Normalize(value)})
}

// Gt keeps rows whose column is greater than value.
func (b Builder) Gt(column string, value any) Builder {
	return b.filter(Gt{Column: column, Value: record.Normalize(value)})
}

// Gte keeps rows whose column is greater than or equal to value.
func (b Builder) Gte(column string, value any) Builder {
	return b.filter(Gte{Column: column, Value: record.Normalize(value)})
}

// Lt keeps rows whose column is less than value.
func (b Builder) Lt(column string, value any) Builder {
	return b.filter(Lt{Column: column, Value: record.Normalize(value)})
}

// Lte keeps rows whose column is less than or equal to value.
func (b Builder) Lte(column string, value any) Builder {
	return b.filter(Lte{Column: column, Value: record.Normalize(value)})
}

// Like keeps rows whose column matches pattern, where % matches any run of
// characters. The match is case sensitive and unanchored.
func (b Builder) Like(column, pattern string) Builder {
	return b.filter(Like{Column: column, Pattern: pattern})
}

// ILike is Like with case folding.
func (b Builder) ILike(column, pattern string) Builder {
	return b.filter(ILike{Column: column, Pattern: pattern})
}

// Is keeps rows whose column is null or equals value.
func (b Builder) Is(column string, value any) Builder {
	return b.filter(Is{Column: column, Value: record.Normalize(value)})
}

// In filters on set membership. values must be a slice or array; anything
// else is a programming error and panics.
func (b Builder) In(column string, values any) Builder {
	set, ok := record.IsArray(values)
	if !ok {
		panic(fmt.Sprintf("query: In(%q) needs a slice, got %T", column, values))
	}
	return b.filter(In{Column: column, Values: set})
}

// Contains keeps rows whose array column holds value.
func (b Builder) Contains(column string, value any) Builder {
	return b.filter(Contains{Column: column, Value: record.Normalize(value)})
}

// Or records a raw or-expression. See the package documentation: it is not
// evaluated.
func (b Builder) Or(expr string) Builder {
	return b.filter(Or{Expr: expr})
}

// Match adds one Eq filter per entry, in key order.
func (b Builder) Match(values map[string]any) Builder {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	next := b
	for _, k := range keys {
		next = next.Eq(k, values[k])
	}
	return next
}

// Order sets the single ordering instruction, replacing any earlier one.
func (b Builder) Order(column string, ascending bool) Builder {
	return b.with(func(d *Descriptor) { d.Order = &Ordering{Column: column, Ascending: ascending} })
}

// Limit truncates the result to the first n rows.
func (b Builder) Limit(n int) Builder {
	return b.with(func(d *Descriptor) { d.Limit = &n })
}

// Range keeps rows from..to inclusive. It takes precedence over Limit.
func (b Builder) Range(from, to int) Builder {
	return b.with(func(d *Descriptor) { d.Range = &Range{From: from, To: to} })
}

// parseColumns splits a select list. "*" and "" mean all columns.
func parseColumns(columns string) []string {
	var out []string
	for _, c := range strings.Split(columns, ",") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if c == "*" {
			return nil
		}
		out = append(out, c)
	}
	return out
}
