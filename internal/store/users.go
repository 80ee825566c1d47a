package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = "id, name, email, password_hash, role, code, theme, language, created_at"

// CreateUser inserts a new user and fills in its store-local id.
// CreatedAt defaults to now when unset. Returns ErrDuplicateEmail if the
// email is already taken.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := s.q(`
	INSERT INTO users (name, email, password_hash, role, code, theme, language, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`)

	err := s.conn.QueryRowContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.Role, u.Code, u.Theme, u.Language,
		formatTime(u.CreatedAt),
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, u.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail looks up a user by its natural key.
// Returns ErrNotFound if no user has that email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := s.q(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return s.scanUserRow(s.conn.QueryRowContext(ctx, query, email))
}

// GetUserByID looks up a user by store-local id.
// Returns ErrNotFound if no user has that id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := s.q(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return s.scanUserRow(s.conn.QueryRowContext(ctx, query, id))
}

// ListUsers returns all users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC`
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListUsersByRole returns users with the given role, ordered by id.
func (s *Store) ListUsersByRole(ctx context.Context, role string) ([]*User, error) {
	query := s.q(`SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY id ASC`)
	rows, err := s.conn.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by role: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdateUserByEmail overwrites the mutable field set of the user matching
// the email: name, password_hash, role, code, theme, language. The row's
// id and created_at are left untouched. This is the reconciliation write
// path: last-writer-wins on exactly this field set, nothing else.
func (s *Store) UpdateUserByEmail(ctx context.Context, u *User) error {
	query := s.q(`
	UPDATE users
	SET name = ?, password_hash = ?, role = ?, code = ?, theme = ?, language = ?
	WHERE email = ?`)

	res, err := s.conn.ExecContext(ctx, query,
		u.Name, u.PasswordHash, u.Role, u.Code, u.Theme, u.Language, u.Email)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.Email, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, u.Email)
	}
	return nil
}

// UpdateUserProfile updates the admin-editable fields of a user by id.
func (s *Store) UpdateUserProfile(ctx context.Context, id int64, name, email, role string) error {
	query := s.q(`UPDATE users SET name = ?, email = ?, role = ? WHERE id = ?`)
	res, err := s.conn.ExecContext(ctx, query, name, email, role, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
		}
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return nil
}

// UpdateUserRole changes a single user's role, matched by email.
func (s *Store) UpdateUserRole(ctx context.Context, email, role string) error {
	query := s.q(`UPDATE users SET role = ? WHERE email = ?`)
	res, err := s.conn.ExecContext(ctx, query, role, email)
	if err != nil {
		return fmt.Errorf("failed to update role for %s: %w", email, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, email)
	}
	return nil
}

// DeleteUser removes a user and its attendance rows. The attendance
// delete runs first because the foreign key is NOT deferrable on every
// engine.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM attendance WHERE user_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete attendance for user %d: %w", id, err)
	}
	if _, err := s.conn.ExecContext(ctx, s.q(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func (s *Store) scanUserRow(row *sql.Row) (*User, error) {
	var u User
	var createdAt string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Code, &u.Theme, &u.Language, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*User, error) {
	var users []*User
	for rows.Next() {
		var u User
		var createdAt string
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.Code, &u.Theme, &u.Language, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure on
// any of the three engines. Matching on message text is crude but the
// drivers expose no common error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}
