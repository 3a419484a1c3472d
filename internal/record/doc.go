// Package record defines the loosely-typed row model shared by every
// emulated table.
//
// A Record is an open key/value map. The store never fixes a schema: a
// table's shape is whatever callers insert. This package only supplies the
// value semantics the query engine needs:
//
//   - Normalize folds Go's many numeric and container kinds into a small
//     closed set (int64, float64, string, bool, nil, []any, Record) so that
//     values written from Go code, YAML fixtures and SQLite snapshots compare
//     the same way.
//   - Equal and Compare implement the filter and ordering semantics.
//   - MarshalCanonical and Key produce deterministic JSON, used wherever two
//     structurally equal descriptors must map to the same string.
//
// The package imports nothing internal; every other internal package may
// import it.
package record
