// Package migrations embeds the goose SQL migrations for each supported database.
package migrations

import "embed"

// FS holds one directory of migrations per dialect: "sqlite" and "postgres".
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

const (
	SQLiteDir   = "sqlite"
	PostgresDir = "postgres"
)
