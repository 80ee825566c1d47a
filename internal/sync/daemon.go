package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dcastano/asistencia/internal/store"
)

// DaemonConfig holds configuration for the background sync daemon.
type DaemonConfig struct {
	// Interval is how often a push runs regardless of file activity.
	Interval time.Duration

	// DebounceInterval is how long to wait after a filesystem change
	// before pushing, batching rapid writes together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultDaemonConfig returns sensible defaults.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Interval:         5 * time.Minute,
		DebounceInterval: 2 * time.Second,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon runs pushes in the background while the configuration's
// sync_active flag is set. Pushes are triggered on a periodic interval
// and, when the local endpoint is a file-based store, after debounced
// filesystem changes to the database file.
//
// The flag is re-read before every trigger, so flipping sync_active off
// via the admin API quiesces a running daemon without restarting it.
type Daemon struct {
	rec     *Reconciler
	primary *store.Store
	config  *DaemonConfig

	watcher *fsnotify.Watcher

	changeMu   stdsync.Mutex
	lastChange time.Time
	dirty      bool

	cancel context.CancelFunc
	wg     stdsync.WaitGroup
}

// NewDaemon creates a Daemon. The primary store is where system_config
// lives. Use Start() to begin.
func NewDaemon(rec *Reconciler, primary *store.Store, config *DaemonConfig) (*Daemon, error) {
	if rec == nil {
		return nil, fmt.Errorf("reconciler cannot be nil")
	}
	if primary == nil {
		return nil, fmt.Errorf("primary store cannot be nil")
	}
	if config == nil {
		config = DefaultDaemonConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Daemon{
		rec:     rec,
		primary: primary,
		config:  config,
		watcher: watcher,
	}, nil
}

// Start begins watching and syncing. It blocks until ctx is cancelled.
//
// If the configured local URL is a file: URL, its parent directory is
// watched for changes to the database file. Sync failures are logged and
// the daemon keeps running; only a watcher breakdown is fatal.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)
	defer d.cancel()

	cfg, err := d.primary.GetSystemConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	watchTarget := ""
	if cfg.LocalDBURL != "" {
		if engine, err := store.EngineForURL(cfg.LocalDBURL); err == nil && engine == store.EngineSQLite {
			watchTarget = store.FilePath(cfg.LocalDBURL)
			// Watch the directory; editors and SQLite WAL rewrites
			// replace files rather than modifying them in place.
			if err := d.watcher.Add(filepath.Dir(watchTarget)); err != nil {
				return fmt.Errorf("failed to watch database directory: %w", err)
			}
			d.config.Logger.Printf("Watching %s", watchTarget)
		}
	}

	d.wg.Add(2)
	go d.watchFileEvents(ctx, watchTarget)
	go d.runLoop(ctx)

	<-ctx.Done()
	d.config.Logger.Println("Shutdown signal received")
	return d.Stop()
}

// Stop shuts the daemon down and waits for its goroutines.
func (d *Daemon) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	err := d.watcher.Close()
	d.wg.Wait()
	return err
}

// watchFileEvents marks the daemon dirty whenever the watched database
// file changes. Events for other files in the directory are ignored.
func (d *Daemon) watchFileEvents(ctx context.Context, watchTarget string) {
	defer d.wg.Done()

	base := filepath.Base(watchTarget)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if watchTarget == "" {
				continue
			}
			name := filepath.Base(event.Name)
			// WAL and journal writes count as database activity.
			if name != base && name != base+"-wal" && name != base+"-journal" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			d.changeMu.Lock()
			d.dirty = true
			d.lastChange = time.Now()
			d.changeMu.Unlock()
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// runLoop triggers pushes on the periodic interval and on debounced file
// changes.
func (d *Daemon) runLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.NewTicker(d.config.Interval)
	defer interval.Stop()
	debounce := time.NewTicker(d.config.DebounceInterval)
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-interval.C:
			d.maybePush(ctx, "interval")
		case <-debounce.C:
			d.changeMu.Lock()
			due := d.dirty && time.Since(d.lastChange) >= d.config.DebounceInterval
			if due {
				d.dirty = false
			}
			d.changeMu.Unlock()
			if due {
				d.maybePush(ctx, "file change")
			}
		}
	}
}

// maybePush runs a push if sync is active and configured. Failures are
// logged, never fatal; a push already in flight is skipped quietly.
func (d *Daemon) maybePush(ctx context.Context, trigger string) {
	cfg, err := d.primary.GetSystemConfig(ctx)
	if err != nil {
		d.config.Logger.Printf("Failed to read config: %v", err)
		return
	}
	if !cfg.SyncActive {
		return
	}
	if cfg.LocalDBURL == "" || cfg.RemoteDBURL == "" {
		return
	}

	d.config.Logger.Printf("Triggering push (%s)", trigger)
	if _, err := d.rec.Push(ctx); err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			return
		}
		d.config.Logger.Printf("Background push failed: %v", err)
	}
}
