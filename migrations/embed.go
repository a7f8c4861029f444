// Package migrations embeds the SQL schema migrations for the local
// panel cache and registers them with the database package.
//
// Importing this package (typically for its side effect from cmd/homedeck)
// makes DB.Migrate aware of the embedded files.
package migrations

import (
	"embed"

	"github.com/homedeck/homedeck/internal/infrastructure/database"
)

//go:embed *.sql
var files embed.FS

func init() {
	database.MigrationsFS = files
	database.MigrationsDir = "."
}
