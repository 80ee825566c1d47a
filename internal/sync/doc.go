// Package sync provides the reconciliation engine between the local and
// remote attendance stores.
//
// # Overview
//
// Two stores hold the same schema and are mutated independently. The
// Reconciler walks the three entity collections in dependency order and
// makes the target match the source:
//
//	source store                      target store
//	     ├── users       ── email ──────→ users
//	     ├── attendance  ── (email, timestamp, type) ──→ attendance
//	     └── offices     ── name ───────→ offices
//
// Push treats the local store as the source of truth; Pull treats the
// remote store as the source. Both directions share one algorithm.
//
// # Identity
//
// Matching is by natural key only. Store-local row ids are never compared
// across stores: an attendance row is re-homed onto the target store's
// own user id for its owner's email.
//
// # Failure model
//
// A run proceeds through named stages; failure aborts the remaining
// stages but does not roll back rows already written. Each row operation
// is idempotent (the same natural-key match re-applied produces no
// duplicates), so a failed run is safe to retry manually. This is an
// at-least-once model, not exactly-once; callers must not assume
// rollback.
//
// # Concurrency
//
// A Reconciler serializes its runs with a single-holder lock; a second
// concurrent Push or Pull fails fast with ErrSyncInProgress instead of
// interleaving writes. Reconciliation opens its own short-lived stores,
// so a failed run never disturbs the router's active client.
//
// The Daemon runs Push in the background while the configuration's
// sync_active flag is set, on a periodic interval and after debounced
// filesystem changes to a file-based local store.
package sync
