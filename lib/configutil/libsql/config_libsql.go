package configlibsql

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Struct struct {
	// a local file path or a libsql:// url
	File string `json:"file"`
}

// OpenDB opens the configured database and loads the given schema.
// Remote libsql urls go through the libsql driver; anything else is
// treated as a local sqlite file and created when missing.
func (config Struct) OpenDB(schema string) (*sql.DB, error) {
	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}

	var db *sql.DB
	var err error
	if strings.HasPrefix(config.File, "libsql://") {
		db, err = sql.Open("libsql", config.File)
	} else {
		_, statErr := os.Stat(config.File)
		if os.IsNotExist(statErr) {
			f, err := os.Create(config.File)
			if err != nil {
				return nil, err
			}
			f.Close()
		}
		db, err = sql.Open("sqlite", config.File)
	}
	if err != nil {
		return nil, err
	}

	// sqlite only supports one writer at a time
	// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	if schema != "" {
		_, err = db.Exec(schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return nil, err
		}
	}
	return db, nil
}
