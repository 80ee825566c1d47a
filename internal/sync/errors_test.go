package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestStageErrorMessage(t *testing.T) {
	err := &StageError{Stage: StageVerify, Err: errors.New("boom")}
	want := "fallo en etapa [Verificando conexiones]: boom"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestStageErrorUnwrap(t *testing.T) {
	inner := &ConnectionError{Endpoint: EndpointRemote, Reason: "timeout"}
	err := &StageError{Stage: StageVerify, Err: inner}

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatal("StageError should unwrap to ConnectionError")
	}
	if connErr.Endpoint != EndpointRemote {
		t.Errorf("endpoint = %q, want %q", connErr.Endpoint, EndpointRemote)
	}
}

func TestConnectionErrorMessage(t *testing.T) {
	err := &ConnectionError{Endpoint: EndpointLocal, Reason: "database file not found"}
	want := "error en conexión Local: database file not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestStage(t *testing.T) {
	if got := Stage(&StageError{Stage: StageInit, Err: errors.New("x")}); got != StageInit {
		t.Errorf("Stage = %q, want %q", got, StageInit)
	}
	wrapped := fmt.Errorf("outer: %w", &StageError{Stage: StageFinalize, Err: errors.New("x")})
	if got := Stage(wrapped); got != StageFinalize {
		t.Errorf("Stage through wrap = %q, want %q", got, StageFinalize)
	}
	if got := Stage(errors.New("plain")); got != "" {
		t.Errorf("Stage of plain error = %q, want empty", got)
	}
	if got := Stage(nil); got != "" {
		t.Errorf("Stage of nil = %q, want empty", got)
	}
}

func TestIsTimeout(t *testing.T) {
	wrapped := &StageError{Stage: StageConnect, Err: context.DeadlineExceeded}
	if !IsTimeout(wrapped) {
		t.Error("expected deadline exceeded to register as timeout")
	}
	if IsTimeout(errors.New("connection refused")) {
		t.Error("plain error should not register as timeout")
	}
	if IsTimeout(nil) {
		t.Error("nil should not register as timeout")
	}
}
