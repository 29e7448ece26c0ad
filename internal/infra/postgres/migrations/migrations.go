package migrations

import "github.com/uptrace/bun/migrate"

// Migrations collects the schema steps; each file registers itself and bun derives the
// version from the file name.
var Migrations = migrate.NewMigrations()
