// Package store provides the in-memory Record Store behind every emulated
// table.
//
// The store maps table names to ordered sequences of records:
//   - Tables are created implicitly on first write
//   - Reading an unknown table yields an empty sequence, never an error
//   - Insertion order is preserved; ordering is applied at query time only
//   - Ids are unique within a table; no cross-table integrity is enforced
//
// # Auto-filled fields
//
// Insert assigns "id" (UUIDv7: time component plus randomness) and
// "created_at" when absent. Update refreshes "updated_at". Seed bypasses
// both and stores fixture rows as given.
//
// # Concurrency
//
// Every operation runs under a single mutex, so from the outside all
// operations appear atomic and totally ordered. Txn exposes the same lock to
// callers that need a read-modify-write sequence (the query builder runs
// update, upsert and delete inside one Txn). There are no transactions,
// isolation levels or compare-and-swap; the single-writer illusion is the
// whole contract.
//
// # Absence is data
//
// The store never returns errors for missing rows: Get returns an empty
// slice, Update reports ok=false and Delete reports false.
//
// # Snapshots
//
// SaveSnapshot and LoadSnapshot persist every table into a SQLite file so a
// fixture set built once can be reloaded by later test runs. The database
// is configured with WAL mode and a busy timeout, like any other SQLite
// file the tooling opens.
package store
