package store

import "time"

// Attendance record types.
const (
	CheckIn  = "CHECK_IN"
	CheckOut = "CHECK_OUT"
)

// User roles.
const (
	RoleEmployee   = "EMPLOYEE"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Database modes for SystemConfig.
const (
	DBModeLocal  = "local"
	DBModeRemote = "remote"
)

// User is an employee account. Email is the cross-store identity key;
// ID is store-local and must never be compared across stores.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Code         string    `json:"code"`
	Theme        string    `json:"theme"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
}

// Attendance is a single check-in or check-out event. It has no natural
// unique key of its own; cross-store identity is the composite
// (owner email, timestamp, type).
type Attendance struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	IsVerified bool      `json:"is_verified"`

	// Populated by joined queries only; not a column of attendance.
	UserEmail string `json:"user_email,omitempty"`
	UserName  string `json:"user_name,omitempty"`
}

// Office is a geofenced work site. Name is the cross-store identity key.
type Office struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    float64   `json:"radius"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemConfig is the singleton configuration record. At most one row
// exists; it is created lazily with defaults on first read and never
// deleted.
type SystemConfig struct {
	ID          int64      `json:"id"`
	DBMode      string     `json:"db_mode"`
	LocalDBURL  string     `json:"local_db_url,omitempty"`
	RemoteDBURL string     `json:"remote_db_url,omitempty"`
	SyncActive  bool       `json:"sync_active"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
}
