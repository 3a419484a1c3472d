package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Op is the operation kind of a Descriptor.
type Op int

const (
	OpSelect Op = iota // default
	OpInsert
	OpUpdate
	OpUpsert
	OpDelete
)

// String returns the lowercase operation name.
func (o Op) String() string {
	switch o {
	case OpSelect:
		return "select"
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpUpsert:
		return "upsert"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// method is the HTTP verb the real backend would receive for the operation.
func (o Op) method() string {
	switch o {
	case OpInsert, OpUpsert:
		return "POST"
	case OpUpdate:
		return "PATCH"
	case OpDelete:
		return "DELETE"
	default:
		return "GET"
	}
}

// Ordering is the single sort instruction of a query.
type Ordering struct {
	Column    string
	Ascending bool
}

// Range is an inclusive pagination window.
type Range struct {
	From int
	To   int
}

// Descriptor is everything a builder chain has accumulated.
type Descriptor struct {
	Table string
	Op    Op

	// Columns is the select projection. Empty means all columns.
	Columns []string

	// Rows is the insert/upsert payload.
	Rows []record.Record

	// Patch is the update payload.
	Patch record.Record

	Filters []Filter
	Order   *Ordering
	Limit   *int
	Range   *Range

	// Count requests an exact count of the filtered rows before pagination.
	Count bool

	// OnConflict is the upsert match column. Empty means "id".
	OnConflict string
}

// clone copies the slices so that a derived builder never shares backing
// arrays with its parent. Payload records are not copied here; execution
// normalizes them into fresh values.
func (d Descriptor) clone() Descriptor {
	out := d
	out.Columns = slices.Clone(d.Columns)
	out.Rows = slices.Clone(d.Rows)
	out.Filters = slices.Clone(d.Filters)
	if d.Order != nil {
		o := *d.Order
		out.Order = &o
	}
	if d.Limit != nil {
		n := *d.Limit
		out.Limit = &n
	}
	if d.Range != nil {
		r := *d.Range
		out.Range = &r
	}
	return out
}

// conflictColumn returns the upsert match column.
func (d Descriptor) conflictColumn() string {
	if d.OnConflict == "" {
		return record.FieldID
	}
	return d.OnConflict
}

// String renders the descriptor as the REST request the real backend would
// receive, e.g. "GET trips?select=id,status&status=eq.open&order=created_at.desc&limit=5".
// It is used for logging and traces; it is not parsed back.
func (d Descriptor) String() string {
	var params []string
	if len(d.Columns) > 0 {
		params = append(params, "select="+strings.Join(d.Columns, ","))
	}
	for _, f := range d.Filters {
		params = append(params, f.String())
	}
	if d.Order != nil {
		dir := "asc"
		if !d.Order.Ascending {
			dir = "desc"
		}
		params = append(params, fmt.Sprintf("order=%s.%s", d.Order.Column, dir))
	}
	if d.Range != nil {
		params = append(params, fmt.Sprintf("offset=%d", d.Range.From), fmt.Sprintf("limit=%d", d.Range.To-d.Range.From+1))
	} else if d.Limit != nil {
		params = append(params, fmt.Sprintf("limit=%d", *d.Limit))
	}
	if d.Op == OpUpsert {
		params = append(params, "on_conflict="+d.conflictColumn())
	}

	var b strings.Builder
	b.WriteString(d.Op.method())
	b.WriteByte(' ')
	b.WriteString(d.Table)
	if len(params) > 0 {
		b.WriteByte('?')
		b.WriteString(strings.Join(params, "&"))
	}
	return b.String()
}
