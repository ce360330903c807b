// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/courtneycrews/ccnft/internal/commons"
	"github.com/jmoiron/sqlx"
)

const (
	ImplementationSqlite   = "sqlite"
	ImplementationPostgres = "postgres"
)

// Open connects to the journal database and creates its tables.
// The postgres URL defaults to the POSTGRES_* environment variables.
func Open(implementation string, sqliteFile string, postgresURL string) (*Repository, error) {
	var db *sqlx.DB
	var err error
	switch implementation {
	case ImplementationPostgres:
		if postgresURL == "" {
			postgresURL = postgresURLFromEnv()
		}
		slog.Info("journal: using postgres")
		db, err = sqlx.Connect("postgres", postgresURL)
	case ImplementationSqlite, "":
		if sqliteFile == "" {
			sqliteFile = filepath.Join(os.TempDir(), "ccnft.sqlite3")
		}
		slog.Info("journal: using sqlite", "path", sqliteFile)
		db, err = sqlx.Connect(commons.SqliteDriver, sqliteFile)
	default:
		return nil, fmt.Errorf("journal: unknown db implementation %q", implementation)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: connect: %w", err)
	}
	repository := &Repository{Db: db}
	if err := repository.CreateTables(); err != nil {
		db.Close()
		return nil, err
	}
	return repository, nil
}

func postgresURLFromEnv() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("POSTGRES_USER", "postgres"),
		getEnv("POSTGRES_PASSWORD", "password"),
		getEnv("POSTGRES_HOST", "localhost"),
		getEnv("POSTGRES_PORT", "5432"),
		getEnv("POSTGRES_DB", "ccnft"),
	)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
