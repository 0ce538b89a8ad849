// Package migrations provides embedded SQL migration files.
package migrations

import (
	_ "embed"
)

//go:embed sql/sqlite/001_initial.sql
var SQLiteInitial string

//go:embed sql/postgres/001_initial.sql
var PostgresInitial string
