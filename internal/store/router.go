package store

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
)

// Router selects which store serves ordinary request traffic.
//
// It holds a permanent handle to the configuration's own store (the
// primary, where system_config lives) and a swappable active store.
// Refresh re-resolves the active store from the current configuration.
//
// The active reference is replaced with a single atomic pointer store so
// concurrent readers never observe a half-updated client: in-flight
// queries complete against the store they started on, and only
// subsequent Active() calls observe the swap.
type Router struct {
	primary *Store
	active  atomic.Pointer[Store]
	logger  *log.Logger
}

// NewRouter creates a Router anchored on the primary store. The active
// store starts as the primary; call Refresh to apply the persisted
// configuration.
//
// If logger is nil, the package default is used.
func NewRouter(primary *Store, logger *log.Logger) *Router {
	if logger == nil {
		logger = defaultLogger
	}
	r := &Router{primary: primary, logger: logger}
	r.active.Store(primary)
	return r
}

// Primary returns the configuration store. All system_config access goes
// here regardless of the active selection.
func (r *Router) Primary() *Store {
	return r.primary
}

// Active returns the store currently serving request traffic.
func (r *Router) Active() *Store {
	return r.active.Load()
}

// Refresh re-reads the system configuration and, when the target URL
// differs from the active store's, opens a new store and swaps it in
// atomically. Invoked once at process start and again after every
// configuration update.
func (r *Router) Refresh(ctx context.Context) error {
	cfg, err := r.primary.GetSystemConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read config for refresh: %w", err)
	}

	target := cfg.LocalDBURL
	if cfg.DBMode == DBModeRemote {
		target = cfg.RemoteDBURL
	}
	if target == "" {
		target = r.primary.URL()
	}

	current := r.active.Load()
	if current.URL() == target {
		return nil
	}

	next, err := Open(target)
	if err != nil {
		return fmt.Errorf("failed to open target store: %w", err)
	}
	if err := next.InitSchema(ctx); err != nil {
		_ = next.Close()
		return fmt.Errorf("failed to prepare target store: %w", err)
	}

	old := r.active.Swap(next)
	r.logger.Printf("Switched active store: %s -> %s", redactURL(old.URL()), redactURL(target))

	// The primary must stay open for config access; anything else is
	// drained and closed. sql.DB lets checked-out connections finish.
	if old != r.primary {
		if err := old.Close(); err != nil {
			r.logger.Printf("Warning: failed to close previous store: %v", err)
		}
	}
	return nil
}

// Close closes the active store (if distinct) and the primary.
func (r *Router) Close() error {
	active := r.active.Load()
	if active != r.primary {
		if err := active.Close(); err != nil {
			r.logger.Printf("Warning: failed to close active store: %v", err)
		}
	}
	return r.primary.Close()
}
