package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertAttendance inserts an attendance row and fills in its id.
// Timestamp defaults to now when unset.
func (s *Store) InsertAttendance(ctx context.Context, a *Attendance) error {
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}

	query := s.q(`
	INSERT INTO attendance (user_id, type, timestamp, status, latitude, longitude, is_verified)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	RETURNING id`)

	err := s.conn.QueryRowContext(ctx, query,
		a.UserID, a.Type, formatTime(a.Timestamp), a.Status,
		floatToNull(a.Latitude), floatToNull(a.Longitude), a.IsVerified,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert attendance: %w", err)
	}
	return nil
}

// FindAttendance looks up a row by the identity triple (store-local user
// id, timestamp, type). Returns ErrNotFound when absent.
//
// The timestamp compare is exact byte equality on the stored RFC3339
// text. Rows written by this system always match; rows imported by other
// tools with a different precision or zone will not, and there is no
// tolerance window because none is specified for the domain.
func (s *Store) FindAttendance(ctx context.Context, userID int64, ts time.Time, typ string) (*Attendance, error) {
	query := s.q(`
	SELECT id, user_id, type, timestamp, status, latitude, longitude, is_verified
	FROM attendance
	WHERE user_id = ? AND timestamp = ? AND type = ?`)

	return s.scanAttendanceRow(s.conn.QueryRowContext(ctx, query, userID, formatTime(ts), typ))
}

// LastAttendanceForUser returns the user's most recent record, or
// ErrNotFound if the user has none.
func (s *Store) LastAttendanceForUser(ctx context.Context, userID int64) (*Attendance, error) {
	query := s.q(`
	SELECT id, user_id, type, timestamp, status, latitude, longitude, is_verified
	FROM attendance
	WHERE user_id = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1`)

	return s.scanAttendanceRow(s.conn.QueryRowContext(ctx, query, userID))
}

// ListAttendanceWithOwner returns every attendance row joined with its
// owner's email, ordered by id. This is the reconciliation source/target
// read: the email travels with the row so cross-store identity never
// touches store-local user ids.
func (s *Store) ListAttendanceWithOwner(ctx context.Context) ([]*Attendance, error) {
	query := `
	SELECT a.id, a.user_id, a.type, a.timestamp, a.status, a.latitude, a.longitude, a.is_verified,
	       u.email
	FROM attendance a
	JOIN users u ON u.id = a.user_id
	ORDER BY a.id ASC`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []*Attendance
	for rows.Next() {
		var a Attendance
		var ts string
		var lat, lon sql.NullFloat64
		err := rows.Scan(&a.ID, &a.UserID, &a.Type, &ts, &a.Status, &lat, &lon, &a.IsVerified, &a.UserEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		a.Timestamp = parseTime(ts)
		a.Latitude = nullToFloat(lat)
		a.Longitude = nullToFloat(lon)
		records = append(records, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}
	return records, nil
}

// ListAttendanceSince returns rows with timestamp at or after since,
// joined with owner name and email, newest first. A zero since returns
// everything.
func (s *Store) ListAttendanceSince(ctx context.Context, since time.Time) ([]*Attendance, error) {
	query := `
	SELECT a.id, a.user_id, a.type, a.timestamp, a.status, a.latitude, a.longitude, a.is_verified,
	       u.email, u.name
	FROM attendance a
	JOIN users u ON u.id = a.user_id`
	var args []interface{}
	if !since.IsZero() {
		query += `
	WHERE a.timestamp >= ?`
		args = append(args, formatTime(since))
	}
	query += `
	ORDER BY a.timestamp DESC, a.id DESC`

	rows, err := s.conn.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var records []*Attendance
	for rows.Next() {
		var a Attendance
		var ts string
		var lat, lon sql.NullFloat64
		err := rows.Scan(&a.ID, &a.UserID, &a.Type, &ts, &a.Status, &lat, &lon, &a.IsVerified, &a.UserEmail, &a.UserName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		a.Timestamp = parseTime(ts)
		a.Latitude = nullToFloat(lat)
		a.Longitude = nullToFloat(lon)
		records = append(records, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance: %w", err)
	}
	return records, nil
}

// UpdateAttendance edits type, timestamp and status of an existing row.
func (s *Store) UpdateAttendance(ctx context.Context, id int64, typ string, ts time.Time, status string) error {
	query := s.q(`UPDATE attendance SET type = ?, timestamp = ?, status = ? WHERE id = ?`)
	res, err := s.conn.ExecContext(ctx, query, typ, formatTime(ts), status, id)
	if err != nil {
		return fmt.Errorf("failed to update attendance %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: attendance %d", ErrNotFound, id)
	}
	return nil
}

// DeleteAttendance removes a row. Deleting a missing row is not an error
// (idempotent).
func (s *Store) DeleteAttendance(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM attendance WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete attendance %d: %w", id, err)
	}
	return nil
}

// CountAttendance returns the total number of attendance rows.
func (s *Store) CountAttendance(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count attendance: %w", err)
	}
	return count, nil
}

func (s *Store) scanAttendanceRow(row *sql.Row) (*Attendance, error) {
	var a Attendance
	var ts string
	var lat, lon sql.NullFloat64

	err := row.Scan(&a.ID, &a.UserID, &a.Type, &ts, &a.Status, &lat, &lon, &a.IsVerified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan attendance: %w", err)
	}

	a.Timestamp = parseTime(ts)
	a.Latitude = nullToFloat(lat)
	a.Longitude = nullToFloat(lon)
	return &a, nil
}
