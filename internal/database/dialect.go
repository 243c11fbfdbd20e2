package database

import (
	"database/sql"
	"regexp"
	"strconv"
	"time"
)

// Dialect hides the differences between the supported SQL backends.
// Repositories write queries with ? placeholders and MySQL-compatible SQL;
// the dialect adapts them to its driver.
type Dialect interface {
	// DriverName is the database/sql driver the dialect registers
	DriverName() string

	// DSN builds the connection string from the configured path or URL
	DSN(config DialectConfig) string

	// RewriteQuery adapts ? placeholders to the driver's bind syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId is false when inserts need RETURNING id instead
	SupportsLastInsertId() bool

	// ConfigureConnection sizes the pool and sets per-connection options
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir names the directory of the migrations FS holding this backend's schema
	MigrationsSubdir() string

	// CreateMigrationsTableQuery creates the table recording applied migrations
	CreateMigrationsTableQuery() string

	// LockForUpdate returns the clause appended to a SELECT that must lock
	// the rows it reads until the transaction ends
	LockForUpdate() string
}

// DialectConfig locates the database. SQLite uses Path; the server
// backends use URL.
type DialectConfig struct {
	Path string
	URL  string
}

// serverDialect is shared by the backends reached over the network
type serverDialect struct{}

func (serverDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (serverDialect) LockForUpdate() string {
	return " FOR UPDATE"
}

// placeholderRegexp matches a single-quoted string literal or a ? placeholder.
// Literals are matched whole so a ? inside one is left alone.
var placeholderRegexp = regexp.MustCompile(`'(?:[^']|'')*'|\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.,
// skipping any ? inside a quoted literal
func rewritePlaceholdersToNumbered(query string) string {
	n := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		if match != "?" {
			return match
		}
		n++
		return "$" + strconv.Itoa(n)
	})
}

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)
}
