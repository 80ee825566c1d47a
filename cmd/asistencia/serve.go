package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/audit"
	"github.com/dcastano/asistencia/internal/dashboard"
	"github.com/dcastano/asistencia/internal/httpapi"
	"github.com/dcastano/asistencia/internal/store"
	syncer "github.com/dcastano/asistencia/internal/sync"
	"github.com/dcastano/asistencia/internal/ui"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "server",
	Short:   "Run the attendance HTTP server",
	Long: `Start the attendance API server.

The server opens the configured local database, applies the schema, and
serves the REST API. If synchronization is active in the system
configuration, a background daemon pushes local changes to the remote
database on an interval and after local database writes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		router := store.NewRouter(primary, newComponentLogger("[router] "))
		defer router.Close()
		if err := router.Refresh(ctx); err != nil {
			// Keep serving on the primary store; the configured target
			// can come back later.
			fmt.Fprintf(os.Stderr, "%s Configured database not reachable, using local: %v\n",
				ui.RenderWarn("⚠"), err)
		}

		hub := dashboard.NewHub(newComponentLogger("[dashboard] "))
		go hub.Run(ctx)

		auditLog := audit.New(cfg.AuditLogPath)
		rec := syncer.New(primary, newComponentLogger("[sync] "), hub)

		sysCfg, err := primary.GetSystemConfig(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading system config: %v\n", err)
			os.Exit(1)
		}

		// The daemon always runs; it re-reads sync_active before every
		// push, so toggling the flag through the admin API takes effect
		// without a restart.
		daemonCfg := syncer.DefaultDaemonConfig()
		daemonCfg.Interval = time.Duration(cfg.SyncIntervalMinutes) * time.Minute
		daemonCfg.Logger = newComponentLogger("[daemon] ")
		daemon, err := syncer.NewDaemon(rec, primary, daemonCfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating sync daemon: %v\n", err)
			os.Exit(1)
		}
		go func() {
			if err := daemon.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "Sync daemon stopped: %v\n", err)
			}
		}()
		defer daemon.Stop()
		if sysCfg.SyncActive {
			fmt.Printf("%s Auto-sync active (every %d minutes)\n",
				ui.RenderAccent("🔄"), cfg.SyncIntervalMinutes)
		} else {
			fmt.Printf("%s Auto-sync idle; enable it via the admin API\n", ui.RenderMuted("🔄"))
		}

		api := httpapi.New(cfg, router, rec, hub, auditLog, newComponentLogger("[http] "))
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		fmt.Printf("%s Listening on :%d (database: %s)\n",
			ui.RenderPass("✓"), cfg.Port, router.Active().URL())

		select {
		case <-ctx.Done():
			fmt.Printf("\n%s Shutting down...\n", ui.RenderAccent("👋"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
			}
			hub.Stop()
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
