package store

import (
	"context"
	"database/sql"
	"log"

	"github.com/haatos/simple-qa/internal/settings"
)

// openTestDB returns a migrated in-memory database. A single connection
// keeps every query on the same in-memory instance.
func openTestDB() *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		log.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		log.Fatal(err)
	}
	RunMigrations(db, settings.DriverSQLite)
	return db
}

func seedProject(db *sql.DB, email, name string) (*User, *Project) {
	userStore := NewUserSQLStore(db, db)
	u, err := userStore.CreateUser(context.Background(), email, "Test User")
	if err != nil {
		log.Fatal(err)
	}
	p, err := userStore.CreateProject(context.Background(), &u.UserID, name)
	if err != nil {
		log.Fatal(err)
	}
	return u, p
}
