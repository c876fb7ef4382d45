package assets

import "embed"

//go:embed migrations/sqlite/*.sql
var SQLiteMigrationsFS embed.FS

//go:embed migrations/postgres/*.sql
var PostgresMigrationsFS embed.FS
