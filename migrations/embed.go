// Package migrations holds the goose SQL migrations for the Postgres record
// store. cmd/api applies them on startup; testutil applies them before the
// integration tests.
package migrations

import "embed"

// FS is the embedded set of *.sql migrations.
//
//go:embed *.sql
var FS embed.FS
