package database

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect talks to MySQL or MariaDB. The URL must carry parseTime=true
// so DATETIME columns scan into time.Time.
type MySQLDialect struct{ serverDialect }

// NewMySQLDialect returns the MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (*MySQLDialect) DriverName() string { return "mysql" }

// RewriteQuery is the identity: the driver binds ? itself
func (*MySQLDialect) RewriteQuery(query string) string { return query }

func (*MySQLDialect) SupportsLastInsertId() bool { return true }

func (*MySQLDialect) ConfigureConnection(db *sql.DB) error {
	configurePool(db)
	_, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (*MySQLDialect) MigrationsSubdir() string { return "mysql" }

func (*MySQLDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS migrations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		filename VARCHAR(255) UNIQUE NOT NULL,
		executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`
}
