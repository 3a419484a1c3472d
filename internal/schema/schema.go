package schema

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Error is a schema compile or validation failure with its position.
type Error struct {
	Table   string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	where := e.Table
	if e.Path != "" {
		where += "." + e.Path
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			where, e.Message)
	}
	return fmt.Sprintf("%s: %s", where, e.Message)
}

// Registry holds the compiled table schemas.
//
// Thread-safety: a Registry is read-only after Compile and safe for
// concurrent use.
type Registry struct {
	ctx    *cue.Context
	tables map[string]cue.Value
}

// Compile builds a registry from CUE source. filename is used in error
// positions only.
func Compile(src []byte, filename string) (*Registry, error) {
	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename(filename))
	if err := root.Err(); err != nil {
		return nil, formatCUEError("", err)
	}

	iter, err := root.Fields(cue.Definitions(false))
	if err != nil {
		return nil, formatCUEError("", err)
	}

	r := &Registry{ctx: ctx, tables: make(map[string]cue.Value)}
	for iter.Next() {
		r.tables[iter.Selector().Unquoted()] = iter.Value()
	}
	return r, nil
}

// Load compiles the CUE file at path.
func Load(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(src, path)
}

// Tables returns the tables with a schema, sorted.
func (r *Registry) Tables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether table has a schema.
func (r *Registry) Has(table string) bool {
	_, ok := r.tables[table]
	return ok
}

// Validate unifies rec with the table schema and requires the result to
// be concrete. Tables without a schema always pass.
func (r *Registry) Validate(table string, rec record.Record) error {
	schema, ok := r.tables[table]
	if !ok {
		return nil
	}

	v := r.ctx.Encode(plain(rec))
	if err := v.Err(); err != nil {
		return formatCUEError(table, err)
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(table, err)
	}
	return nil
}

// plain converts record values into types the CUE encoder handles without
// reflection on named types.
func plain(v any) any {
	switch x := v.(type) {
	case record.Record:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	default:
		return x
	}
}

// formatCUEError extracts the first error's path and position.
func formatCUEError(table string, err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Table: table, Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	out := &Error{
		Table:   table,
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
