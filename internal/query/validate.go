package query

import "fmt"

// ValidationResult lists the ways a descriptor departs from what the real
// backend would do, or from what the caller most likely meant.
//
// Warnings never block execution. The builder logs them at Warn when it
// runs the query.
type ValidationResult struct {
	// OK is true when there are no warnings.
	OK bool

	Warnings []string
}

// Validate inspects a descriptor for known gaps and likely mistakes:
//  1. or filters are accepted but not evaluated
//  2. update and delete without filters touch every row
//  3. range and limit together: range wins, limit is ignored
//  4. filters, ordering and pagination on insert/upsert are ignored
//  5. on_conflict outside upsert is ignored
//
// Validate is a pure function with no side effects.
func Validate(d Descriptor) ValidationResult {
	v := &validator{warnings: []string{}}
	v.validate(d)
	return ValidationResult{
		OK:       len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validate(d Descriptor) {
	if d.Table == "" {
		v.addWarning("empty table name")
	}

	for _, f := range d.Filters {
		v.validateFilter(f)
	}

	switch d.Op {
	case OpUpdate, OpDelete:
		if len(d.Filters) == 0 {
			v.addWarning("%s without filters affects every row in %q", d.Op, d.Table)
		}
		if d.Op == OpUpdate && len(d.Patch) == 0 {
			v.addWarning("update with an empty payload only refreshes updated_at")
		}
	case OpInsert, OpUpsert:
		if len(d.Filters) > 0 {
			v.addWarning("filters are ignored by %s", d.Op)
		}
		if d.Order != nil || d.Limit != nil || d.Range != nil {
			v.addWarning("ordering and pagination are ignored by %s", d.Op)
		}
		if len(d.Rows) == 0 {
			v.addWarning("%s with no rows", d.Op)
		}
	}

	if d.Op != OpUpsert && d.OnConflict != "" {
		v.addWarning("on_conflict %q is ignored by %s", d.OnConflict, d.Op)
	}

	if d.Range != nil {
		if d.Limit != nil {
			v.addWarning("range and limit both set; limit %d is ignored", *d.Limit)
		}
		if d.Range.From < 0 || d.Range.To < d.Range.From {
			v.addWarning("range [%d, %d] selects no rows", d.Range.From, d.Range.To)
		}
	}
}

func (v *validator) validateFilter(f Filter) {
	switch p := f.(type) {
	case Or:
		v.addWarning("or filter %q is accepted but not evaluated; every row passes it", p.Expr)
	case Like:
		v.validatePattern(p.Column, p.Pattern)
	case ILike:
		v.validatePattern(p.Column, p.Pattern)
	case In:
		if len(p.Values) == 0 {
			v.addWarning("in filter on %q has an empty set and matches nothing", p.Column)
		}
	case Eq:
		if p.Value == nil {
			v.addWarning("eq filter on %q compares with null; use is", p.Column)
		}
	case Neq, Gt, Gte, Lt, Lte, Is, Contains:
		// No checks
	default:
		v.addWarning("unknown filter type %T", f)
	}
}

func (v *validator) validatePattern(column, pattern string) {
	if pattern == "" {
		v.addWarning("empty pattern on %q matches every non-null value", column)
	}
}
