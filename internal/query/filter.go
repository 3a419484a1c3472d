package query

import (
	"fmt"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Filter is one predicate of a Descriptor.
//
// This is a sealed interface - only types in this package implement it.
// Evaluate handles every variant; adding a variant means extending it.
type Filter interface {
	filterNode() // Marker method - seals interface to this package
	fmt.Stringer
}

// Eq matches rows whose Column strictly equals Value.
type Eq struct {
	Column string
	Value  any
}

// Neq matches rows whose Column does not equal Value.
type Neq struct {
	Column string
	Value  any
}

// Gt matches rows whose Column is ordered after Value.
type Gt struct {
	Column string
	Value  any
}

// Gte matches rows whose Column is ordered after or equal to Value.
type Gte struct {
	Column string
	Value  any
}

// Lt matches rows whose Column is ordered before Value.
type Lt struct {
	Column string
	Value  any
}

// Lte matches rows whose Column is ordered before or equal to Value.
type Lte struct {
	Column string
	Value  any
}

// Like matches rows whose Column matches a %-wildcard pattern, case
// sensitively.
type Like struct {
	Column  string
	Pattern string
}

// ILike is Like with case folding.
type ILike struct {
	Column  string
	Pattern string
}

// Is matches rows whose Column equals Value or is null. This is looser than
// SQL IS on purpose: Is{Column: "x", Value: true} also matches null rows.
type Is struct {
	Column string
	Value  any
}

// In matches rows whose Column equals one of Values.
type In struct {
	Column string
	Values []any
}

// Contains matches rows whose Column holds an array including Value. Non
// array fields never match.
type Contains struct {
	Column string
	Value  any
}

// Or carries a raw PostgREST or-expression such as
// "status.eq.open,status.eq.pending". It is accepted so that chains built
// for the real backend keep working, but it is not evaluated: every row
// passes it.
type Or struct {
	Expr string
}

func (Eq) filterNode()       {}
func (Neq) filterNode()      {}
func (Gt) filterNode()       {}
func (Gte) filterNode()      {}
func (Lt) filterNode()       {}
func (Lte) filterNode()      {}
func (Like) filterNode()     {}
func (ILike) filterNode()    {}
func (Is) filterNode()       {}
func (In) filterNode()       {}
func (Contains) filterNode() {}
func (Or) filterNode()       {}

func (f Eq) String() string       { return fmt.Sprintf("%s=eq.%s", f.Column, record.String(f.Value)) }
func (f Neq) String() string      { return fmt.Sprintf("%s=neq.%s", f.Column, record.String(f.Value)) }
func (f Gt) String() string       { return fmt.Sprintf("%s=gt.%s", f.Column, record.String(f.Value)) }
func (f Gte) String() string      { return fmt.Sprintf("%s=gte.%s", f.Column, record.String(f.Value)) }
func (f Lt) String() string       { return fmt.Sprintf("%s=lt.%s", f.Column, record.String(f.Value)) }
func (f Lte) String() string      { return fmt.Sprintf("%s=lte.%s", f.Column, record.String(f.Value)) }
func (f Like) String() string     { return fmt.Sprintf("%s=like.%s", f.Column, f.Pattern) }
func (f ILike) String() string    { return fmt.Sprintf("%s=ilike.%s", f.Column, f.Pattern) }
func (f Is) String() string       { return fmt.Sprintf("%s=is.%s", f.Column, record.String(f.Value)) }
func (f In) String() string       { return fmt.Sprintf("%s=in.(%s)", f.Column, record.String(f.Values)) }
func (f Contains) String() string { return fmt.Sprintf("%s=cs.%s", f.Column, record.Key(f.Value)) }
func (f Or) String() string       { return fmt.Sprintf("or=(%s)", f.Expr) }

// Evaluate reports whether row satisfies f. A missing field is treated as
// null.
func Evaluate(f Filter, row record.Record) bool {
	switch p := f.(type) {
	case Eq:
		return record.Equal(row[p.Column], p.Value)
	case Neq:
		return !record.Equal(row[p.Column], p.Value)
	case Gt:
		c, ok := record.Compare(row[p.Column], p.Value)
		return ok && c > 0
	case Gte:
		c, ok := record.Compare(row[p.Column], p.Value)
		return ok && c >= 0
	case Lt:
		c, ok := record.Compare(row[p.Column], p.Value)
		return ok && c < 0
	case Lte:
		c, ok := record.Compare(row[p.Column], p.Value)
		return ok && c <= 0
	case Like:
		return matchPattern(row[p.Column], p.Pattern, false)
	case ILike:
		return matchPattern(row[p.Column], p.Pattern, true)
	case Is:
		v := row[p.Column]
		return v == nil || record.Equal(v, p.Value)
	case In:
		v := row[p.Column]
		for _, candidate := range p.Values {
			if record.Equal(v, candidate) {
				return true
			}
		}
		return false
	case Contains:
		arr, ok := record.IsArray(row[p.Column])
		if !ok {
			return false
		}
		for _, e := range arr {
			if record.Equal(e, p.Value) {
				return true
			}
		}
		return false
	case Or:
		return true
	default:
		panic(fmt.Sprintf("query: unknown filter type %T", f))
	}
}

// MatchesAll reports whether row satisfies every filter (logical AND).
// An empty filter list matches every row.
func MatchesAll(filters []Filter, row record.Record) bool {
	for _, f := range filters {
		if !Evaluate(f, row) {
			return false
		}
	}
	return true
}

// Apply returns the rows satisfying every filter, preserving order.
func Apply(filters []Filter, rows []record.Record) []record.Record {
	out := make([]record.Record, 0, len(rows))
	for _, r := range rows {
		if MatchesAll(filters, r) {
			out = append(out, r)
		}
	}
	return out
}
