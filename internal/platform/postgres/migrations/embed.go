package migrations

import "embed"

// FS contains the embedded goose migrations for the PostgreSQL schema.
//
//go:embed *.sql
var FS embed.FS
