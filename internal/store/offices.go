package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetOfficeByName looks up an office by its natural key.
// Returns ErrNotFound when absent.
func (s *Store) GetOfficeByName(ctx context.Context, name string) (*Office, error) {
	query := s.q(`SELECT id, name, latitude, longitude, radius, updated_at FROM offices WHERE name = ?`)
	return s.scanOfficeRow(s.conn.QueryRowContext(ctx, query, name))
}

// FirstOffice returns the lowest-id office, or ErrNotFound if none exist.
func (s *Store) FirstOffice(ctx context.Context) (*Office, error) {
	query := `SELECT id, name, latitude, longitude, radius, updated_at FROM offices ORDER BY id ASC LIMIT 1`
	return s.scanOfficeRow(s.conn.QueryRowContext(ctx, query))
}

// ListOffices returns all offices ordered by id.
func (s *Store) ListOffices(ctx context.Context) ([]*Office, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, latitude, longitude, radius, updated_at FROM offices ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offices: %w", err)
	}
	defer rows.Close()

	var offices []*Office
	for rows.Next() {
		var o Office
		var updatedAt string
		if err := rows.Scan(&o.ID, &o.Name, &o.Latitude, &o.Longitude, &o.Radius, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan office: %w", err)
		}
		o.UpdatedAt = parseTime(updatedAt)
		offices = append(offices, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offices: %w", err)
	}
	return offices, nil
}

// InsertOffice inserts a new office and fills in its id.
// UpdatedAt defaults to now when unset.
func (s *Store) InsertOffice(ctx context.Context, o *Office) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now().UTC()
	}

	query := s.q(`
	INSERT INTO offices (name, latitude, longitude, radius, updated_at)
	VALUES (?, ?, ?, ?, ?)
	RETURNING id`)

	err := s.conn.QueryRowContext(ctx, query,
		o.Name, o.Latitude, o.Longitude, o.Radius, formatTime(o.UpdatedAt)).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert office: %w", err)
	}
	return nil
}

// UpsertOfficeByName inserts the office or, if one with the same name
// exists, overwrites all of its fields. Full upsert semantics, unlike
// attendance rows which are immutable once present.
func (s *Store) UpsertOfficeByName(ctx context.Context, o *Office) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now().UTC()
	}

	query := s.q(`
	INSERT INTO offices (name, latitude, longitude, radius, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		radius = excluded.radius,
		updated_at = excluded.updated_at`)

	_, err := s.conn.ExecContext(ctx, query,
		o.Name, o.Latitude, o.Longitude, o.Radius, formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert office %s: %w", o.Name, err)
	}
	return nil
}

// UpdateOffice edits an office by id.
func (s *Store) UpdateOffice(ctx context.Context, o *Office) error {
	o.UpdatedAt = time.Now().UTC()
	query := s.q(`
	UPDATE offices SET name = ?, latitude = ?, longitude = ?, radius = ?, updated_at = ?
	WHERE id = ?`)

	res, err := s.conn.ExecContext(ctx, query,
		o.Name, o.Latitude, o.Longitude, o.Radius, formatTime(o.UpdatedAt), o.ID)
	if err != nil {
		return fmt.Errorf("failed to update office %d: %w", o.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: office %d", ErrNotFound, o.ID)
	}
	return nil
}

// CountOffices returns the total number of offices.
func (s *Store) CountOffices(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM offices`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count offices: %w", err)
	}
	return count, nil
}

func (s *Store) scanOfficeRow(row *sql.Row) (*Office, error) {
	var o Office
	var updatedAt string

	err := row.Scan(&o.ID, &o.Name, &o.Latitude, &o.Longitude, &o.Radius, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan office: %w", err)
	}

	o.UpdatedAt = parseTime(updatedAt)
	return &o, nil
}
