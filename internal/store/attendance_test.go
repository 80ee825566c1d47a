package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func createAttendanceUser(t *testing.T, st *Store, email string) *User {
	t.Helper()
	user := testUser(email)
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestInsertAndFindAttendance(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	user := createAttendanceUser(t, st, "ana@example.com")

	ts := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	lat := 4.6097
	rec := &Attendance{
		UserID:     user.ID,
		Type:       CheckIn,
		Timestamp:  ts,
		Status:     "ON_TIME",
		Latitude:   &lat,
		IsVerified: true,
	}
	if err := st.InsertAttendance(ctx, rec); err != nil {
		t.Fatalf("failed to insert attendance: %v", err)
	}
	if rec.ID == 0 {
		t.Error("expected InsertAttendance to assign an id")
	}

	got, err := st.FindAttendance(ctx, user.ID, ts, CheckIn)
	if err != nil {
		t.Fatalf("failed to find attendance: %v", err)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp mismatch: got %v, want %v", got.Timestamp, ts)
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Errorf("latitude not round-tripped: %v", got.Latitude)
	}
	if got.Longitude != nil {
		t.Errorf("expected nil longitude, got %v", *got.Longitude)
	}

	// Same user and timestamp, different type: distinct identity.
	if _, err := st.FindAttendance(ctx, user.ID, ts, CheckOut); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for different type, got %v", err)
	}
}

func TestLastAttendanceForUser(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	user := createAttendanceUser(t, st, "ana@example.com")

	if _, err := st.LastAttendanceForUser(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty history, got %v", err)
	}

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for i, typ := range []string{CheckIn, CheckOut, CheckIn} {
		rec := &Attendance{UserID: user.ID, Type: typ, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if err := st.InsertAttendance(ctx, rec); err != nil {
			t.Fatalf("failed to insert attendance: %v", err)
		}
	}

	last, err := st.LastAttendanceForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to get last attendance: %v", err)
	}
	if last.Type != CheckIn || !last.Timestamp.Equal(base.Add(2*time.Hour)) {
		t.Errorf("wrong last record: %+v", last)
	}
}

func TestListAttendanceWithOwner(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	ana := createAttendanceUser(t, st, "ana@example.com")
	luis := createAttendanceUser(t, st, "luis@example.com")

	for _, rec := range []*Attendance{
		{UserID: ana.ID, Type: CheckIn},
		{UserID: luis.ID, Type: CheckIn},
	} {
		if err := st.InsertAttendance(ctx, rec); err != nil {
			t.Fatalf("failed to insert attendance: %v", err)
		}
	}

	rows, err := st.ListAttendanceWithOwner(ctx)
	if err != nil {
		t.Fatalf("failed to list attendance: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].UserEmail != "ana@example.com" || rows[1].UserEmail != "luis@example.com" {
		t.Errorf("owner emails not joined: %q, %q", rows[0].UserEmail, rows[1].UserEmail)
	}
}

func TestListAttendanceSince(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	user := createAttendanceUser(t, st, "ana@example.com")

	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		rec := &Attendance{UserID: user.ID, Type: CheckIn, Timestamp: base.AddDate(0, 0, i)}
		if err := st.InsertAttendance(ctx, rec); err != nil {
			t.Fatalf("failed to insert attendance: %v", err)
		}
	}

	rows, err := st.ListAttendanceSince(ctx, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("failed to list attendance: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows since day 1, got %d", len(rows))
	}
	// Newest first.
	if !rows[0].Timestamp.After(rows[1].Timestamp) {
		t.Errorf("rows not ordered newest first: %v then %v", rows[0].Timestamp, rows[1].Timestamp)
	}
	if rows[0].UserName == "" {
		t.Error("expected owner name joined into listing")
	}

	all, err := st.ListAttendanceSince(ctx, time.Time{})
	if err != nil {
		t.Fatalf("failed to list all attendance: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("zero since should return everything, got %d rows", len(all))
	}
}

func TestDeleteAttendanceIdempotent(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()
	user := createAttendanceUser(t, st, "ana@example.com")

	rec := &Attendance{UserID: user.ID, Type: CheckIn}
	if err := st.InsertAttendance(ctx, rec); err != nil {
		t.Fatalf("failed to insert attendance: %v", err)
	}
	if err := st.DeleteAttendance(ctx, rec.ID); err != nil {
		t.Fatalf("failed to delete attendance: %v", err)
	}
	// Deleting again is not an error.
	if err := st.DeleteAttendance(ctx, rec.ID); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}
