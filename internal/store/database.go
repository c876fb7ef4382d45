package store

import (
	"database/sql"
	"log"
	"runtime"
	"time"

	"github.com/haatos/simple-qa/internal"
	"github.com/haatos/simple-qa/internal/settings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func InitDatabase(readonly bool) *sql.DB {
	driver := settings.Settings.DatabaseDriver
	db, err := sql.Open(driver, settings.Settings.DatabaseString(readonly))
	if err != nil {
		log.Fatal("fatal error opening database:", err)
	}

	if driver == settings.DriverPostgres {
		db.SetMaxOpenConns(max(8, runtime.NumCPU()*2))
		return db
	}

	if readonly {
		db.SetMaxOpenConns(max(4, runtime.NumCPU()))
	} else {
		if _, err := db.Exec("PRAGMA temp_store=memory"); err != nil {
			log.Fatal(err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			log.Fatal(err)
		}
		db.SetMaxOpenConns(1)
	}

	return db
}

func dbTime(t time.Time) string {
	return t.UTC().Format(internal.DBTimestampLayout)
}
