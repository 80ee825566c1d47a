// Package store provides relational storage for the attendance system.
//
// A Store wraps a database/sql connection to one of three engines, chosen
// by URL scheme:
//
//   - file:       embedded SQLite (WAL mode, busy timeout, foreign keys)
//   - postgres:// networked PostgreSQL via pgx
//   - libsql://   networked libSQL server
//
// All three engines hold the same schema: users, attendance and offices,
// plus (on the configuration store only) the system_config singleton that
// records which datastore is currently active and the sync endpoints.
//
// Identity across stores is by natural key, never by row id: users match
// by email, offices by name, attendance by (owner email, timestamp, type).
// Ids are store-local. Timestamps are stored as RFC3339 UTC text on every
// engine so that cross-store equality compares are byte-stable.
//
// The Router holds the long-lived connection to the configuration store
// plus an atomically swappable "active" store used for ordinary request
// traffic; Probe classifies an endpoint as reachable without side effects.
package store
