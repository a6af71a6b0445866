// Package migrations embeds the SQLite schema migration files.
package migrations

import "embed"

// FS holds the campaign store migrations.
//
//go:embed campaigns/*.sql
var FS embed.FS
