// Package migrations embeds the catalog's goose SQL migrations. Grounded on
// the teacher's internal/db/migrations package (its own migrations.Run over
// an embedded fs), adapted to this spec's single sessions table.
package migrations

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var files embed.FS

// Run applies every pending migration against db.
func Run(db *sql.DB) error {
	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
