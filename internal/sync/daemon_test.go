package sync

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/dcastano/asistencia/internal/store"
)

func quietDaemonConfig() *DaemonConfig {
	cfg := DefaultDaemonConfig()
	cfg.Interval = 50 * time.Millisecond
	cfg.DebounceInterval = 10 * time.Millisecond
	cfg.Logger = log.New(io.Discard, "", 0)
	return cfg
}

func TestNewDaemonValidation(t *testing.T) {
	local, _, rec := setupEndpoints(t)

	if _, err := NewDaemon(nil, local, nil); err == nil {
		t.Error("expected error for nil reconciler")
	}
	if _, err := NewDaemon(rec, nil, nil); err == nil {
		t.Error("expected error for nil store")
	}

	d, err := NewDaemon(rec, local, nil)
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Errorf("failed to stop unstarted daemon: %v", err)
	}
}

func TestDaemonPushesOnInterval(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	addUser(t, local, "ana@x.com", "Ana", "h")

	cfg, err := local.GetSystemConfig(ctx)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if _, err := local.UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      cfg.DBMode,
		LocalDBURL:  cfg.LocalDBURL,
		RemoteDBURL: cfg.RemoteDBURL,
		SyncActive:  true,
	}); err != nil {
		t.Fatalf("failed to activate sync: %v", err)
	}

	d, err := NewDaemon(rec, local, quietDaemonConfig())
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- d.Start(runCtx) }()

	// Wait for at least one interval push to land on the remote.
	deadline := time.After(5 * time.Second)
	for {
		n, err := remote.CountUsers(ctx)
		if err != nil {
			t.Fatalf("failed to count remote users: %v", err)
		}
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			cancel()
			t.Fatal("daemon never pushed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; err != nil && err != context.Canceled {
		t.Errorf("daemon exited with error: %v", err)
	}
}

func TestDaemonFollowsSyncActiveFlag(t *testing.T) {
	local, remote, rec := setupEndpoints(t)
	ctx := context.Background()

	addUser(t, local, "ana@x.com", "Ana", "h")
	// sync_active stays false.

	d, err := NewDaemon(rec, local, quietDaemonConfig())
	if err != nil {
		t.Fatalf("failed to create daemon: %v", err)
	}

	d.maybePush(ctx, "test")

	n, err := remote.CountUsers(ctx)
	if err != nil {
		t.Fatalf("failed to count remote users: %v", err)
	}
	if n != 0 {
		t.Errorf("daemon pushed despite sync_active=false: %d users on remote", n)
	}

	// Flipping the flag on takes effect on the next trigger, no
	// restart needed.
	cfg, err := local.GetSystemConfig(ctx)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if _, err := local.UpdateSystemConfig(ctx, store.SystemConfigUpdate{
		DBMode:      cfg.DBMode,
		LocalDBURL:  cfg.LocalDBURL,
		RemoteDBURL: cfg.RemoteDBURL,
		SyncActive:  true,
	}); err != nil {
		t.Fatalf("failed to activate sync: %v", err)
	}

	d.maybePush(ctx, "test")

	n, err = remote.CountUsers(ctx)
	if err != nil {
		t.Fatalf("failed to count remote users: %v", err)
	}
	if n != 1 {
		t.Errorf("daemon ignored sync_active flip: %d users on remote, want 1", n)
	}
	if err := d.Stop(); err != nil {
		t.Errorf("failed to stop daemon: %v", err)
	}
}
