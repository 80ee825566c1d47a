package store

import (
	"context"
	"fmt"
	"os"
)

// ProbeResult classifies an endpoint as reachable or not. Reason is only
// set when unreachable.
type ProbeResult struct {
	Reachable bool   `json:"reachable"`
	Reason    string `json:"reason,omitempty"`
}

// Probe attempts a lightweight reachability check against a datastore
// URL without side effects.
//
// For file: URLs this is an existence check on the resolved path; the
// engine is never opened, so a missing file is not created. For network
// URLs a connection is opened, pinged and immediately closed. Every
// failure, including auth and missing-database errors, is reported in
// the result rather than returned; Probe never lets an engine error
// escape this boundary.
func Probe(ctx context.Context, url string) ProbeResult {
	engine, err := EngineForURL(url)
	if err != nil {
		return ProbeResult{Reason: err.Error()}
	}

	if engine == EngineSQLite {
		path := FilePath(url)
		if _, err := os.Stat(path); err != nil {
			return ProbeResult{Reason: fmt.Sprintf("database file not found: %s", path)}
		}
		return ProbeResult{Reachable: true}
	}

	constructor := getConstructor(engine)
	if constructor == nil {
		return ProbeResult{Reason: fmt.Sprintf("no registered engine for %q", url)}
	}

	conn, err := constructor(url)
	if err != nil {
		return ProbeResult{Reason: err.Error()}
	}
	defer conn.Close()

	if err := conn.PingContext(ctx); err != nil {
		return ProbeResult{Reason: err.Error()}
	}
	return ProbeResult{Reachable: true}
}
