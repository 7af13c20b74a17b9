// Package migrations embeds the goose schema migrations for the entity
// store. The earlier prototypes of this system carried diverging schemas
// (with and without quantity, with and without ratings); here the history
// is kept as explicit numbered steps ending in the single superset schema,
// with one SQL dialect directory per supported driver.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// ForDialect returns the migration files for the given goose dialect
// directory ("sqlite" or "postgres").
func ForDialect(dialect string) (fs.FS, error) {
	return fs.Sub(files, dialect)
}
