package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// defaultLogger logs engine selection and lifecycle events.
var defaultLogger = log.New(os.Stderr, "[store] ", log.LstdFlags)

// Store wraps a database connection to one storage engine.
//
// The zero value is not usable; construct with Open. The caller MUST call
// Close() when done.
type Store struct {
	conn   *sql.DB
	url    string
	engine Engine
	logger *log.Logger
}

// Open creates a Store for the given datastore URL, selecting the engine
// by URL scheme via the registry. The connection is verified with a ping
// before being returned.
//
// Example:
//
//	st, err := store.Open("file:data/asistencia.db")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(url string) (*Store, error) {
	engine, err := EngineForURL(url)
	if err != nil {
		return nil, err
	}

	constructor := getConstructor(engine)
	if constructor == nil {
		return nil, fmt.Errorf("%w: no registered engine for %q", ErrUnsupportedProtocol, url)
	}

	conn, err := constructor(url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn:   conn,
		url:    url,
		engine: engine,
		logger: defaultLogger,
	}

	if engine == EngineSQLite {
		// WAL mode for concurrent readers during writes
		if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
		if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	s.logger.Printf("Opened %s store: %s", engine, redactURL(url))
	return s, nil
}

// URL returns the datastore URL this store was opened with.
func (s *Store) URL() string {
	return s.url
}

// Engine returns the storage engine backing this store.
func (s *Store) Engine() Engine {
	return s.engine
}

// RawDB returns the underlying sql.DB connection.
// This is useful for integrating with other libraries that expect *sql.DB.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the underlying connection pool. In-flight queries on
// already checked-out connections complete before their connections are
// released.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if s.engine == EngineSQLite {
		// Checkpoint WAL before closing
		if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
			s.logger.Printf("Warning: failed to checkpoint WAL: %v", err)
		}
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// q adapts a query written with ? placeholders to the engine's dialect.
// PostgreSQL expects $1..$n; SQLite and libSQL take ? as written.
func (s *Store) q(query string) string {
	if s.engine != EnginePostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// redactURL hides credentials in network URLs for logging.
func redactURL(url string) string {
	at := strings.LastIndexByte(url, '@')
	if at < 0 {
		return url
	}
	scheme := strings.Index(url, "://")
	if scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

// formatTime renders a timestamp in the canonical storage format:
// RFC3339 in UTC. Every write path goes through this so that natural-key
// compares on attendance timestamps are byte-stable across stores.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a stored timestamp. Invalid values yield the zero
// time rather than an error; the schema only ever writes formatTime
// output.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullStringToTime converts a nullable stored timestamp.
func nullStringToTime(ns sql.NullString) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := parseTime(ns.String)
	if t.IsZero() {
		return nil
	}
	return &t
}

// floatToNull converts an optional coordinate for SQL storage.
func floatToNull(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// nullToFloat converts a nullable stored coordinate.
func nullToFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
