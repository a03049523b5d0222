// Package migrations holds the Postgres schema. database.Pool.Migrate applies
// the *.up.sql files at startup; the *.down.sql files are for operators.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
