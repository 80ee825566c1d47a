package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestProbeExistingFile(t *testing.T) {
	st := setupTestStore(t)

	res := Probe(context.Background(), st.URL())
	if !res.Reachable {
		t.Errorf("expected existing database to be reachable, got reason %q", res.Reason)
	}
}

func TestProbeMissingFile(t *testing.T) {
	url := "file:" + filepath.Join(t.TempDir(), "missing.db")

	res := Probe(context.Background(), url)
	if res.Reachable {
		t.Error("expected missing file to be unreachable")
	}
	if !strings.Contains(res.Reason, "not found") {
		t.Errorf("unexpected reason: %q", res.Reason)
	}

	// The probe must not create the file as a side effect.
	if after := Probe(context.Background(), url); after.Reachable {
		t.Error("probe created the database file")
	}
}

func TestProbeUnsupportedScheme(t *testing.T) {
	res := Probe(context.Background(), "mysql://root@localhost/test")
	if res.Reachable {
		t.Error("expected unsupported scheme to be unreachable")
	}
	if res.Reason == "" {
		t.Error("expected a reason for the failure")
	}
}
