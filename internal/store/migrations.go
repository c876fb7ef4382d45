package store

import (
	"database/sql"
	"log"

	assets "github.com/haatos/simple-qa"
	"github.com/haatos/simple-qa/internal/settings"
	"github.com/pressly/goose/v3"
)

func RunMigrations(db *sql.DB, driver string) {
	if err := migrate(db, driver); err != nil {
		log.Fatal(err)
	}
}

func migrate(db *sql.DB, driver string) error {
	if driver == settings.DriverPostgres {
		goose.SetBaseFS(assets.PostgresMigrationsFS)
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		return goose.Up(db, "migrations/postgres")
	}

	goose.SetBaseFS(assets.SQLiteMigrationsFS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations/sqlite")
}
