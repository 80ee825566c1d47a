package store

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// Engine identifies a storage engine.
type Engine string

const (
	// EngineSQLite is the embedded file-based engine (file: URLs).
	EngineSQLite Engine = "sqlite"

	// EnginePostgres is a networked PostgreSQL server (postgres:// or
	// postgresql:// URLs).
	EnginePostgres Engine = "postgres"

	// EngineLibSQL is a networked libSQL server (libsql://, wss:// or
	// https:// URLs).
	EngineLibSQL Engine = "libsql"
)

// String returns the string representation of the engine.
func (e Engine) String() string {
	return string(e)
}

// Constructor opens a raw database handle for a datastore URL.
// Engine implementations register themselves with Register().
type Constructor func(url string) (*sql.DB, error)

var (
	registry      = make(map[Engine]Constructor)
	registryMutex sync.RWMutex
)

// Register registers an engine constructor. Called from init() in
// engines.go; registering the same engine twice is a programming error.
func Register(e Engine, constructor Constructor) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if constructor == nil {
		panic(fmt.Sprintf("store: Register constructor is nil for engine %s", e))
	}

	if _, exists := registry[e]; exists {
		panic(fmt.Sprintf("store: Register called twice for engine %s", e))
	}

	registry[e] = constructor
}

// getConstructor retrieves the constructor for an engine.
// Returns nil if the engine is not registered.
func getConstructor(e Engine) Constructor {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	return registry[e]
}

// RegisteredEngines returns all registered engines.
// Useful for testing and debugging.
func RegisteredEngines() []Engine {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	engines := make([]Engine, 0, len(registry))
	for e := range registry {
		engines = append(engines, e)
	}
	return engines
}

// EngineForURL inspects a datastore URL's scheme and returns the engine
// responsible for it. URLs with an unrecognized scheme fail with
// ErrUnsupportedProtocol.
func EngineForURL(url string) (Engine, error) {
	switch {
	case strings.HasPrefix(url, "file:"):
		return EngineSQLite, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return EnginePostgres, nil
	case strings.HasPrefix(url, "libsql://"), strings.HasPrefix(url, "wss://"), strings.HasPrefix(url, "https://"):
		return EngineLibSQL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProtocol, url)
	}
}

// FilePath returns the filesystem path of a file: URL, stripping the
// scheme and any query options.
func FilePath(url string) string {
	path := strings.TrimPrefix(url, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
