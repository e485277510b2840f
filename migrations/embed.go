// Package migrations embeds the SQL schema so goose can apply it at startup
// and in integration tests without depending on the working directory.
package migrations

import "embed"

// FS holds all *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
