// Package migrations embeds the kv SQLite schema.
package migrations

import "embed"

// FS holds the ordered SQL migrations for the kv entries table.
//
//go:embed *.sql
var FS embed.FS
