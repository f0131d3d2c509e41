package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the ordered bun migration set; each file registers itself.
var Migrations = migrate.NewMigrations()
