// Package migrations embeds the smart house schema migrations into the binary.
package migrations

import (
	"embed"

	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
