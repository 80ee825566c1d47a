package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "github.com/tursodatabase/go-libsql"
)

func init() {
	Register(EngineSQLite, openSQLite)
	Register(EnginePostgres, openPostgres)
	Register(EngineLibSQL, openLibSQL)
}

// openSQLite opens the embedded engine. The parent directory is created
// if missing so that a fresh file: URL works on first run.
func openSQLite(url string) (*sql.DB, error) {
	dir := filepath.Dir(FilePath(url))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return sql.Open("sqlite3", url)
}

func openPostgres(url string) (*sql.DB, error) {
	return sql.Open("pgx", url)
}

func openLibSQL(url string) (*sql.DB, error) {
	return sql.Open("libsql", url)
}
