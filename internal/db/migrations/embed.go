// Package migrations embeds the goose SQL migrations, one directory per driver.
package migrations

import "embed"

// FS contains the embedded SQL migration files.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
