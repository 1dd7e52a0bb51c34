package server

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// OpenDB opens the SQLite database behind SQLiteStore. A single
// connection is kept so ":memory:" names one database for the whole
// process.
func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
