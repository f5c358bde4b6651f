package sqlstore

import (
	"database/sql"
	"fmt"
)

// RunMigrations creates the tables if they do not exist. Column types differ
// only where SQLite and Postgres disagree on names.
func RunMigrations(db *sql.DB, driver string) error {
	blob, timestamp := "BLOB", "DATETIME"
	if driver == DriverPostgres {
		blob, timestamp = "BYTEA", "TIMESTAMPTZ"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			total BIGINT NOT NULL,
			currency TEXT NOT NULL,
			payment_status TEXT NOT NULL DEFAULT 'pending',
			payment_id TEXT NOT NULL DEFAULT '',
			updated_at %s NOT NULL
		);`, timestamp),

		`CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_id_key
			ON orders (payment_id) WHERE payment_id <> '';`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS outbox_events (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			payload %s NOT NULL,
			published INTEGER NOT NULL DEFAULT 0,
			created_at %s NOT NULL
		);`, blob, timestamp),
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
