package database

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDialect is the default single-file backend
type SQLiteDialect struct{}

// NewSQLiteDialect returns the SQLite dialect
func NewSQLiteDialect() *SQLiteDialect {
	return &SQLiteDialect{}
}

func (*SQLiteDialect) DriverName() string { return "sqlite3" }

// DSN opens write transactions with BEGIN IMMEDIATE so that a
// read-modify-write holds the write lock from its first read.
func (*SQLiteDialect) DSN(config DialectConfig) string {
	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	return config.Path + sep + "_txlock=immediate&_busy_timeout=5000&_foreign_keys=on"
}

func (*SQLiteDialect) RewriteQuery(query string) string { return query }

func (*SQLiteDialect) SupportsLastInsertId() bool { return true }

// ConfigureConnection switches the file to WAL so readers do not block the writer
func (*SQLiteDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}
	return nil
}

func (*SQLiteDialect) MigrationsSubdir() string { return "sqlite" }

func (*SQLiteDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		filename TEXT UNIQUE NOT NULL,
		executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
}

// LockForUpdate is empty: the immediate transaction already holds the lock
func (*SQLiteDialect) LockForUpdate() string { return "" }
