package store

import (
	"context"
	"fmt"

	"bankbot/internal/logging"
)

// Schema versions:
// v1: accounts, credit_cards, transactions, recipient_relationships
// v2: accounts.is_vendor and the transaction reference column
const CurrentSchemaVersion = 2

// Migration adds a column that older databases lack.
type Migration struct {
	Table  string
	Column string
	Def    string
}

// pendingMigrations handle tables that exist but predate newer columns.
var pendingMigrations = []Migration{
	{"accounts", "is_vendor", "INTEGER NOT NULL DEFAULT 0"},
	{"transactions", "reference", "TEXT NOT NULL DEFAULT ''"},
}

// runMigrations applies pendingMigrations to db.
func runMigrations(ctx context.Context, db querier) error {
	timer := logging.StartTimer(logging.CategoryStore, "runMigrations")
	defer timer.Stop()

	applied, skipped := 0, 0
	for _, m := range pendingMigrations {
		if !tableExists(ctx, db, m.Table) {
			logging.StoreDebug("Table missing, skipping migration: %s.%s", m.Table, m.Column)
			skipped++
			continue
		}
		if columnExists(ctx, db, m.Table, m.Column) {
			skipped++
			continue
		}

		query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.Table, m.Column, m.Def)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", m.Table, m.Column, err)
		}
		logging.Store("Migration applied: added %s.%s", m.Table, m.Column)
		applied++
	}

	if applied > 0 && columnExists(ctx, db, "accounts", "is_vendor") {
		// Vendors created before the flag existed are recognisable by their
		// session id.
		if _, err := db.ExecContext(ctx,
			`UPDATE accounts SET is_vendor = 1 WHERE session_id LIKE 'vendor\_%' ESCAPE '\' OR session_id LIKE '%\_vendor' ESCAPE '\'`,
		); err != nil {
			return fmt.Errorf("failed to backfill vendor flag: %w", err)
		}
	}

	logging.StoreDebug("Schema migrations complete: applied=%d, skipped=%d", applied, skipped)
	return nil
}

// columnExists checks if a column exists in a table using PRAGMA table_info.
func columnExists(ctx context.Context, db querier, table, column string) bool {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		logging.StoreDebug("PRAGMA table_info(%s) failed: %v", table, err)
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid, notnull, pk int
			name, ctype      string
			dflt             any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// tableExists checks if a table exists in the database.
func tableExists(ctx context.Context, db querier, table string) bool {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
	).Scan(&count)
	if err != nil {
		logging.StoreDebug("Table existence check failed for %s: %v", table, err)
		return false
	}
	return count > 0
}

// SchemaVersion returns the latest recorded schema version, or 0 for a
// database that has never been initialised.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	return schemaVersion(ctx, s.db)
}

func schemaVersion(ctx context.Context, db querier) (int, error) {
	if !tableExists(ctx, db, "schema_versions") {
		return 0, nil
	}
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func setSchemaVersion(ctx context.Context, db querier, version int) error {
	_, err := db.ExecContext(ctx,
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		version, fmt.Sprintf("Migrated to schema version %d", version),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	logging.Store("Schema version set to %d", version)
	return nil
}
