package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSystemConfig returns the singleton configuration row, creating it
// with defaults (local mode, sync inactive) the first time it is read.
func (s *Store) GetSystemConfig(ctx context.Context) (*SystemConfig, error) {
	cfg, err := s.readSystemConfig(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	query := s.q(`
	INSERT INTO system_config (db_mode, sync_active)
	VALUES (?, ?)
	RETURNING id`)

	created := &SystemConfig{DBMode: DBModeLocal, SyncActive: false}
	if err := s.conn.QueryRowContext(ctx, query, created.DBMode, created.SyncActive).Scan(&created.ID); err != nil {
		return nil, fmt.Errorf("failed to create default config: %w", err)
	}
	return created, nil
}

// SystemConfigUpdate carries the admin-writable configuration fields.
type SystemConfigUpdate struct {
	DBMode      string
	LocalDBURL  string
	RemoteDBURL string
	SyncActive  bool
}

// UpdateSystemConfig overwrites the writable fields of the singleton,
// creating it first if it has never been read.
func (s *Store) UpdateSystemConfig(ctx context.Context, upd SystemConfigUpdate) (*SystemConfig, error) {
	cfg, err := s.GetSystemConfig(ctx)
	if err != nil {
		return nil, err
	}

	query := s.q(`
	UPDATE system_config
	SET db_mode = ?, local_db_url = ?, remote_db_url = ?, sync_active = ?
	WHERE id = ?`)

	_, err = s.conn.ExecContext(ctx, query,
		upd.DBMode,
		nullIfEmpty(upd.LocalDBURL),
		nullIfEmpty(upd.RemoteDBURL),
		upd.SyncActive,
		cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update config: %w", err)
	}

	return s.readSystemConfig(ctx)
}

// SetLastSync records the completion time of a reconciliation run.
func (s *Store) SetLastSync(ctx context.Context, t time.Time) error {
	cfg, err := s.GetSystemConfig(ctx)
	if err != nil {
		return err
	}

	query := s.q(`UPDATE system_config SET last_sync_at = ? WHERE id = ?`)
	if _, err := s.conn.ExecContext(ctx, query, formatTime(t), cfg.ID); err != nil {
		return fmt.Errorf("failed to record sync time: %w", err)
	}
	return nil
}

func (s *Store) readSystemConfig(ctx context.Context) (*SystemConfig, error) {
	query := `
	SELECT id, db_mode, local_db_url, remote_db_url, sync_active, last_sync_at
	FROM system_config
	ORDER BY id ASC
	LIMIT 1`

	var cfg SystemConfig
	var localURL, remoteURL, lastSync sql.NullString

	err := s.conn.QueryRowContext(ctx, query).Scan(
		&cfg.ID, &cfg.DBMode, &localURL, &remoteURL, &cfg.SyncActive, &lastSync)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.LocalDBURL = localURL.String
	cfg.RemoteDBURL = remoteURL.String
	cfg.LastSyncAt = nullStringToTime(lastSync)
	return &cfg, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
