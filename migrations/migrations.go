// Package migrations embeds the schema migrations for every supported dialect.
package migrations

import "embed"

// FS holds one subdirectory of ordered .sql files per dialect
//
//go:embed sqlite/*.sql postgres/*.sql mysql/*.sql
var FS embed.FS
