package database

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresDialect binds $n placeholders and reads insert ids back with RETURNING
type PostgresDialect struct{ serverDialect }

// NewPostgresDialect returns the PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (*PostgresDialect) DriverName() string { return "postgres" }

func (*PostgresDialect) RewriteQuery(query string) string {
	return rewritePlaceholdersToNumbered(query)
}

func (*PostgresDialect) SupportsLastInsertId() bool { return false }

func (*PostgresDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	return nil
}

func (*PostgresDialect) MigrationsSubdir() string { return "postgres" }

func (*PostgresDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id BIGSERIAL PRIMARY KEY,
		filename TEXT UNIQUE NOT NULL,
		executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	)`
}
