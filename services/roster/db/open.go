package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open opens the roster database and applies the schema. A remote URL
// selects the libsql driver; anything else is a local sqlite file
// opened in WAL mode with a single connection, which avoids
// SQLITE_BUSY under the delete-then-insert publish pattern.
func Open(path string) (*sql.DB, error) {
	driver := driverFor(path)

	if driver == "sqlite" && path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}

	conn, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if driver == "sqlite" {
		conn.SetMaxOpenConns(1)
		_, err = conn.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
	}

	_, err = conn.Exec(Schema)
	if err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return conn, nil
}

func driverFor(path string) string {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(path, scheme) {
			return "libsql"
		}
	}
	return "sqlite"
}
