package migrations

import "embed"

// FS contains embedded SQLite migrations for invitations storage.
//
//go:embed *.sql
var FS embed.FS
