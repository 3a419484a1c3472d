package store

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/SpareCarry/sparecarry-sub004/internal/record"
)

// Snapshot schema version tracking:
// 1 - Initial layout (records table keyed by table name and position)
const snapshotSchemaVersion = 1

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS records (
	tbl  TEXT    NOT NULL,
	pos  INTEGER NOT NULL,
	body TEXT    NOT NULL,
	PRIMARY KEY (tbl, pos)
);
`

// SaveSnapshot writes every table into a SQLite file at path, replacing any
// snapshot already stored there. Row order is preserved.
func (s *Store) SaveSnapshot(ctx context.Context, path string) error {
	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer db.Close()

	s.mu.Lock()
	tables := make(map[string][]record.Record, len(s.tables))
	for name, rows := range s.tables {
		tables[name] = record.CloneAll(rows)
	}
	s.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (tbl, pos, body) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for name, rows := range tables {
		for pos, r := range rows {
			body, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("marshal %s[%d]: %w", name, pos, err)
			}
			if _, err := stmt.ExecContext(ctx, name, pos, string(body)); err != nil {
				return fmt.Errorf("write %s[%d]: %w", name, pos, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot seeds the store from a SQLite snapshot. Each table found in
// the snapshot replaces the table of the same name; other tables are left
// untouched. Rows are seeded as-is (no generated fields).
func (s *Store) LoadSnapshot(ctx context.Context, path string) error {
	db, err := openSnapshot(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, "SELECT tbl, body FROM records ORDER BY tbl ASC, pos ASC")
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]record.Record)
	var order []string
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return fmt.Errorf("scan snapshot row: %w", err)
		}
		rec, err := decodeRecord(body)
		if err != nil {
			return fmt.Errorf("decode %s row: %w", name, err)
		}
		if _, seen := tables[name]; !seen {
			order = append(order, name)
		}
		tables[name] = append(tables[name], rec)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration: %w", err)
	}

	for _, name := range order {
		s.Seed(name, tables[name])
	}
	return nil
}

// decodeRecord parses a JSON body keeping integers exact (no float64
// round-trip for values above 2^53).
func decodeRecord(body string) (record.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return record.New(m), nil
}

// openSnapshot creates or opens a SQLite snapshot file and applies pragmas
// and schema. Idempotent.
func openSnapshot(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to snapshot: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := applySnapshotSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return db, nil
}

func applySnapshotSchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > snapshotSchemaVersion {
		return fmt.Errorf("snapshot schema version %d is newer than supported %d", version, snapshotSchemaVersion)
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", snapshotSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
