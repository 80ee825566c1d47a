package sync

import (
	"context"
	"errors"
	"fmt"
)

// Errors returned at the operation boundary. The Spanish strings are the
// wire-visible messages the admin frontend matches on; they follow the
// service's established API contract.
var (
	// ErrConfigIncomplete is returned when either datastore URL is
	// missing from the system configuration.
	ErrConfigIncomplete = errors.New("configuración incompleta: faltan URLs de base de datos")

	// ErrSyncInProgress is returned when a Push or Pull is invoked
	// while another run holds the lock.
	ErrSyncInProgress = errors.New("a sync operation is already running")
)

// Endpoint labels used in connection failures.
const (
	EndpointLocal  = "Local"
	EndpointRemote = "Remota"
)

// ConnectionError reports that an endpoint failed its connectivity probe.
type ConnectionError struct {
	Endpoint string
	Reason   string
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("error en conexión %s: %s", e.Endpoint, e.Reason)
}

// StageError wraps a failure with the name of the reconciliation stage
// it occurred in, for unambiguous attribution.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("fallo en etapa [%s]: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Stage extracts the stage name from an error, or "" if it carries none.
func Stage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// IsTimeout reports whether a run failed because its deadline elapsed,
// as opposed to an endpoint being unreachable.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
