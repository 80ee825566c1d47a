package sync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dcastano/asistencia/internal/store"
)

// setupEndpoints creates a local (primary) and a remote SQLite store,
// wires their URLs into the primary's system configuration, and returns
// both open stores plus a Reconciler.
func setupEndpoints(t *testing.T) (local, remote *store.Store, rec *Reconciler) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	localURL := "file:" + filepath.Join(dir, "local.db")
	remoteURL := "file:" + filepath.Join(dir, "remote.db")

	local = openEndpoint(t, localURL)
	remote = openEndpoint(t, remoteURL)

	if err := local.InitConfigSchema(ctx); err != nil {
		t.Fatalf("failed to initialize config schema: %v", err)
	}
	if _, err := local.UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      store.DBModeLocal,
		LocalDBURL:  localURL,
		RemoteDBURL: remoteURL,
	}); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}

	return local, remote, New(local, nil, nil)
}

func openEndpoint(t *testing.T, url string) *store.Store {
	t.Helper()
	st, err := store.Open(url)
	if err != nil {
		t.Fatalf("failed to open %s: %v", url, err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return st
}

func addUser(t *testing.T, st *store.Store, email, name, hash string) *store.User {
	t.Helper()
	u := &store.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         store.RoleEmployee,
		Code:         "ABC123",
		Theme:        "light",
		Language:     "es",
	}
	if err := st.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return u
}

func addAttendance(t *testing.T, st *store.Store, userID int64, typ string, ts time.Time) {
	t.Helper()
	rec := &store.Attendance{UserID: userID, Type: typ, Timestamp: ts, Status: "ON_TIME"}
	if err := st.InsertAttendance(context.Background(), rec); err != nil {
		t.Fatalf("failed to insert attendance: %v", err)
	}
}

func mustCount(t *testing.T, st *store.Store, what string, count func(context.Context) (int, error)) int {
	t.Helper()
	n, err := count(context.Background())
	if err != nil {
		t.Fatalf("failed to count %s: %v", what, err)
	}
	return n
}

// The reference push scenario: the local store has a newer version of a
// user the remote already knows plus one attendance record the remote is
// missing. After the push the remote has exactly one user carrying the
// local field values and both attendance records; a second push changes
// nothing.
func TestPushUpdatesExistingAndInsertsMissing(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	localUser := addUser(t, local, "a@x.com", "Ana v2", "hash-v2")
	addAttendance(t, local, localUser.ID, store.CheckIn, day)
	addAttendance(t, local, localUser.ID, store.CheckOut, day.Add(8*time.Hour))

	remoteUser := addUser(t, remote, "a@x.com", "Ana v1", "hash-v1")
	addAttendance(t, remote, remoteUser.ID, store.CheckIn, day)

	report, err := rec.Push(ctx)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if report.Users != 1 {
		t.Errorf("report.Users = %d, want 1", report.Users)
	}
	if report.Attendance != 1 {
		t.Errorf("report.Attendance = %d, want 1 (only the missing record)", report.Attendance)
	}

	if n := mustCount(t, remote, "users", remote.CountUsers); n != 1 {
		t.Errorf("remote has %d users, want 1", n)
	}
	if n := mustCount(t, remote, "attendance", remote.CountAttendance); n != 2 {
		t.Errorf("remote has %d attendance rows, want 2", n)
	}

	got, err := remote.GetUserByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("failed to get remote user: %v", err)
	}
	if got.Name != "Ana v2" || got.PasswordHash != "hash-v2" {
		t.Errorf("remote user not updated: %+v", got)
	}
	if got.ID != remoteUser.ID {
		t.Errorf("remote user id changed from %d to %d", remoteUser.ID, got.ID)
	}

	// Second push: idempotent, no new writes.
	report2, err := rec.Push(ctx)
	if err != nil {
		t.Fatalf("second push failed: %v", err)
	}
	if report2.Attendance != 0 {
		t.Errorf("second push inserted %d attendance rows, want 0", report2.Attendance)
	}
	if n := mustCount(t, remote, "attendance", remote.CountAttendance); n != 2 {
		t.Errorf("remote attendance grew to %d on second push", n)
	}
	if n := mustCount(t, remote, "users", remote.CountUsers); n != 1 {
		t.Errorf("remote users grew to %d on second push", n)
	}
}

// The user stage runs before the attendance stage, so a full push
// carries the owner first and nothing is skipped.
func TestPushCarriesOwnerBeforeAttendance(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	owner := addUser(t, local, "ana@x.com", "Ana", "h")
	addAttendance(t, local, owner.ID, store.CheckIn, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))

	report, err := rec.Push(ctx)
	if err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if report.SkippedAttendance != 0 {
		t.Errorf("expected no skips, got %d", report.SkippedAttendance)
	}
	if report.Attendance != 1 {
		t.Errorf("report.Attendance = %d, want 1", report.Attendance)
	}
	if n := mustCount(t, remote, "attendance", remote.CountAttendance); n != 1 {
		t.Errorf("remote attendance = %d, want 1", n)
	}
}

func TestReconcileAttendanceSkipCounting(t *testing.T) {
	local, remote, _ := setupEndpoints(t)
	ctx := context.Background()

	owner := addUser(t, local, "ana@x.com", "Ana", "h")
	addAttendance(t, local, owner.ID, store.CheckIn, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))

	// Call the attendance stage directly without running the user stage:
	// the remote has no users, so the row's owner is missing there.
	inserted, skipped, err := reconcileAttendance(ctx, local, remote)
	if err != nil {
		t.Fatalf("attendance stage failed: %v", err)
	}
	if inserted != 0 {
		t.Errorf("inserted = %d, want 0", inserted)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if n := mustCount(t, remote, "attendance", remote.CountAttendance); n != 0 {
		t.Errorf("remote attendance = %d, want 0", n)
	}
}

func TestPushThenPullIsStable(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	ana := addUser(t, local, "ana@x.com", "Ana", "h1")
	addAttendance(t, local, ana.ID, store.CheckIn, day)
	luis := addUser(t, remote, "luis@x.com", "Luis", "h2")
	addAttendance(t, remote, luis.ID, store.CheckIn, day)

	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if _, err := rec.Pull(ctx); err != nil {
		t.Fatalf("pull failed: %v", err)
	}

	// Both stores converge on the union.
	for name, st := range map[string]*store.Store{"local": local, "remote": remote} {
		if n := mustCount(t, st, "users", st.CountUsers); n != 2 {
			t.Errorf("%s has %d users, want 2", name, n)
		}
		if n := mustCount(t, st, "attendance", st.CountAttendance); n != 2 {
			t.Errorf("%s has %d attendance rows, want 2", name, n)
		}
	}

	// A further round trip changes nothing.
	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("second push failed: %v", err)
	}
	if _, err := rec.Pull(ctx); err != nil {
		t.Fatalf("second pull failed: %v", err)
	}
	if n := mustCount(t, local, "attendance", local.CountAttendance); n != 2 {
		t.Errorf("local attendance grew to %d after round trip", n)
	}
	if n := mustCount(t, remote, "attendance", remote.CountAttendance); n != 2 {
		t.Errorf("remote attendance grew to %d after round trip", n)
	}
}

func TestPushSyncsOffices(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	office := &store.Office{Name: "Main Office", Latitude: 4.6, Longitude: -74.08, Radius: 500, UpdatedAt: time.Now().UTC()}
	if err := local.UpsertOfficeByName(ctx, office); err != nil {
		t.Fatalf("failed to seed office: %v", err)
	}

	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	got, err := remote.GetOfficeByName(ctx, "Main Office")
	if err != nil {
		t.Fatalf("office not pushed: %v", err)
	}
	if got.Radius != 500 {
		t.Errorf("office radius = %v, want 500", got.Radius)
	}

	// Changing the geofence locally overwrites the remote copy, never
	// duplicates it.
	office.Radius = 750
	if err := local.UpsertOfficeByName(ctx, office); err != nil {
		t.Fatalf("failed to update office: %v", err)
	}
	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("second push failed: %v", err)
	}
	if n := mustCount(t, remote, "offices", remote.CountOffices); n != 1 {
		t.Errorf("remote has %d offices, want 1", n)
	}
	got, err = remote.GetOfficeByName(ctx, "Main Office")
	if err != nil {
		t.Fatalf("failed to get office: %v", err)
	}
	if got.Radius != 750 {
		t.Errorf("office radius = %v, want 750", got.Radius)
	}
}

func TestPushRecordsLastSync(t *testing.T) {
	local, _, rec := setupEndpoints(t)
	ctx := context.Background()

	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	cfg, err := local.GetSystemConfig(ctx)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if cfg.LastSyncAt == nil {
		t.Fatal("expected last_sync_at to be set after push")
	}
	if time.Since(*cfg.LastSyncAt) > time.Minute {
		t.Errorf("last_sync_at too old: %v", cfg.LastSyncAt)
	}
}

func TestSyncConfigIncomplete(t *testing.T) {
	dir := t.TempDir()
	primary := openEndpoint(t, "file:"+filepath.Join(dir, "local.db"))
	if err := primary.InitConfigSchema(context.Background()); err != nil {
		t.Fatalf("failed to initialize config schema: %v", err)
	}

	rec := New(primary, nil, nil)
	_, err := rec.Push(context.Background())
	if !errors.Is(err, ErrConfigIncomplete) {
		t.Fatalf("expected ErrConfigIncomplete, got %v", err)
	}
	if Stage(err) != StageInit {
		t.Errorf("expected stage %q, got %q", StageInit, Stage(err))
	}
}

func TestSyncUnreachableRemoteFailsBeforeWrites(t *testing.T) {
	local, _, rec := setupEndpoints(t)
	ctx := context.Background()

	addUser(t, local, "ana@x.com", "Ana", "h")

	// Point the remote at a file that does not exist.
	cfg, err := local.GetSystemConfig(ctx)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	missing := "file:" + filepath.Join(t.TempDir(), "missing.db")
	if _, err := local.UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      cfg.DBMode,
		LocalDBURL:  cfg.LocalDBURL,
		RemoteDBURL: missing,
	}); err != nil {
		t.Fatalf("failed to update config: %v", err)
	}

	_, err = rec.Push(ctx)
	if err == nil {
		t.Fatal("expected push to fail with unreachable remote")
	}
	if Stage(err) != StageVerify {
		t.Errorf("expected stage %q, got %q", StageVerify, Stage(err))
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %T: %v", err, err)
	}
	if connErr.Endpoint != EndpointRemote {
		t.Errorf("error attributed to %q, want %q", connErr.Endpoint, EndpointRemote)
	}

	// last_sync_at stays unset: the run wrote nothing.
	after, err := local.GetSystemConfig(ctx)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if after.LastSyncAt != nil {
		t.Error("last_sync_at set despite failed run")
	}
}

func TestSyncInProgress(t *testing.T) {
	_, _, rec := setupEndpoints(t)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	_, err := rec.Push(context.Background())
	if !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
}

type captureSink struct {
	completed []*Report
	failed    []string
}

func (c *captureSink) SyncCompleted(report *Report)                          { c.completed = append(c.completed, report) }
func (c *captureSink) SyncFailed(direction Direction, stage string, _ error) { c.failed = append(c.failed, stage) }

func TestEventSinkNotified(t *testing.T) {
	local, _, _ := setupEndpoints(t)
	sink := &captureSink{}
	rec := New(local, nil, sink)
	ctx := context.Background()

	if _, err := rec.Push(ctx); err != nil {
		t.Fatalf("push failed: %v", err)
	}
	if len(sink.completed) != 1 {
		t.Fatalf("expected 1 completion event, got %d", len(sink.completed))
	}
	if sink.completed[0].Direction != DirectionPush {
		t.Errorf("event direction = %q, want push", sink.completed[0].Direction)
	}

	// Break the remote and confirm the failure event carries the stage.
	cfg, _ := local.GetSystemConfig(ctx)
	if _, err := local.UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      cfg.DBMode,
		LocalDBURL:  cfg.LocalDBURL,
		RemoteDBURL: "file:" + filepath.Join(t.TempDir(), "gone.db"),
	}); err != nil {
		t.Fatalf("failed to update config: %v", err)
	}
	if _, err := rec.Push(ctx); err == nil {
		t.Fatal("expected push to fail")
	}
	if len(sink.failed) != 1 || sink.failed[0] != StageVerify {
		t.Errorf("expected failure event for stage %q, got %v", StageVerify, sink.failed)
	}
}

func TestReportMessage(t *testing.T) {
	push := &Report{Direction: DirectionPush, Users: 3, Attendance: 5, Offices: 1}
	want := "Sincronización (Push) exitosa. Procesados: 3 usuarios, 5 nuevos registros de asistencia, 1 oficinas."
	if got := push.Message(); got != want {
		t.Errorf("push message:\n got %q\nwant %q", got, want)
	}

	pull := &Report{Direction: DirectionPull, Users: 2, Attendance: 0, Offices: 1}
	want = "Datos traídos (Pull) con éxito. Procesados: 2 usuarios, 0 nuevos registros de asistencia, 1 oficinas."
	if got := pull.Message(); got != want {
		t.Errorf("pull message:\n got %q\nwant %q", got, want)
	}
}
