// Package query implements the fluent, PostgREST-style query builder that
// drives the Record Store.
//
// A Builder accumulates a Descriptor across chained calls and executes it
// against the store exactly once, on resolution (Execute, Single or
// MaybeSingle). Builders are immutable: every chained call returns a new
// Builder, so a partially built chain can be reused as a template.
//
// # Execution order
//
// The algorithm is fixed:
//
//  1. The operation is the last of Insert, Update, Upsert or Delete called on
//     the chain; otherwise Select (the default, also when no operation was
//     named at all).
//  2. Insert normalizes the payload to rows, fills id, created_at and
//     updated_at when absent and appends.
//  3. Update applies the filters and merges the payload, with a refreshed
//     updated_at, into every match. With no filters every row matches.
//  4. Upsert merges rows whose conflict column (default "id") matches an
//     existing row and inserts the rest.
//  5. Delete applies the filters, removes the matches and returns their
//     pre-deletion values.
//  6. Select applies the filters in declaration order (logical AND), then the
//     single ordering instruction, then pagination (Range wins over Limit).
//
// # Filters
//
// Filter is a sealed interface: only the variants in this package implement
// it, and Evaluate switches over all of them exhaustively.
//
//	Eq, Neq            strict (in)equality; numbers compare by value
//	Gt, Gte, Lt, Lte   ordered comparison within one kind, no coercion
//	Like, ILike        % wildcards, unanchored, ILike folds case
//	Is                 equals the value OR the field is null
//	In                 member of a set
//	Contains           the field is an array that includes the value
//	Or                 accepted so chains do not break, NOT evaluated
//
// Or is a known gap: it never removes rows. Validate reports it, and the
// builder logs the warning when it runs.
//
// # Results
//
// Expected outcomes are data. Result.Error is nil unless a table schema
// rejects a write; zero matches is an empty Data slice, and Single returns
// nil data instead of failing on zero or many rows.
package query
