package store

import (
	"context"
	"fmt"

	"bankbot/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	account_holder_name TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT '$',
	is_vendor INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS credit_cards (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	credit_card_name TEXT NOT NULL,
	minimum_balance REAL NOT NULL DEFAULT 0,
	current_balance REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	reference TEXT NOT NULL DEFAULT '',
	from_account_number TEXT NOT NULL,
	to_account_number TEXT NOT NULL,
	amount REAL NOT NULL,
	timestamp TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS recipient_relationships (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id INTEGER NOT NULL REFERENCES accounts(id),
	recipient_account_id INTEGER NOT NULL REFERENCES accounts(id),
	recipient_nickname TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schema_versions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version INTEGER NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	description TEXT
);
`

// indexes are created after migrations since they may cover migrated columns.
const indexes = `
CREATE INDEX IF NOT EXISTS idx_accounts_holder ON accounts(account_holder_name);
CREATE INDEX IF NOT EXISTS idx_cards_account ON credit_cards(account_id);
CREATE INDEX IF NOT EXISTS idx_tx_from ON transactions(from_account_number, timestamp);
CREATE INDEX IF NOT EXISTS idx_tx_to ON transactions(to_account_number, timestamp);
CREATE INDEX IF NOT EXISTS idx_recipients_account ON recipient_relationships(account_id);
`

// initialize creates missing tables and upgrades older schemas.
func (s *Store) initialize(ctx context.Context) error {
	timer := logging.StartTimer(logging.CategoryStore, "initialize")
	defer timer.Stop()

	version, err := schemaVersion(ctx, s.db)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := runMigrations(ctx, s.db); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if version < CurrentSchemaVersion {
		if err := setSchemaVersion(ctx, s.db, CurrentSchemaVersion); err != nil {
			return err
		}
	}
	return nil
}
