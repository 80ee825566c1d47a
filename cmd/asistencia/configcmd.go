package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/store"
	"github.com/dcastano/asistencia/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "sync",
	Short:   "Manage the system configuration singleton",
}

var (
	setURLsLocal  string
	setURLsRemote string
)

var configSetURLsCmd = &cobra.Command{
	Use:   "set-urls",
	Short: "Set the local and remote database URLs",
	Long: `Set the database URLs used for synchronization.

Supported URL schemes:
  file:path/to.db        embedded SQLite
  postgres://...         PostgreSQL
  libsql:// wss:// https://   Turso / libSQL`,
	Run: func(cmd *cobra.Command, args []string) {
		if setURLsLocal == "" && setURLsRemote == "" {
			fmt.Fprintf(os.Stderr, "Error: at least one of --local or --remote is required\n")
			os.Exit(1)
		}
		for _, url := range []string{setURLsLocal, setURLsRemote} {
			if url == "" {
				continue
			}
			if _, err := store.EngineForURL(url); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx := cmd.Context()
		current, err := primary.GetSystemConfig(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading system config: %v\n", err)
			os.Exit(1)
		}

		upd := store.SystemConfigUpdate{
			DBMode:      current.DBMode,
			LocalDBURL:  current.LocalDBURL,
			RemoteDBURL: current.RemoteDBURL,
			SyncActive:  current.SyncActive,
		}
		if setURLsLocal != "" {
			upd.LocalDBURL = setURLsLocal
		}
		if setURLsRemote != "" {
			upd.RemoteDBURL = setURLsRemote
		}

		if _, err := primary.UpdateSystemConfig(ctx, upd); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Database URLs updated\n", ui.RenderPass("✓"))
	},
}

var setModeSync bool

var configSetModeCmd = &cobra.Command{
	Use:   "set-mode [local|remote]",
	Short: "Set the active database mode",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := args[0]
		if mode != store.DBModeLocal && mode != store.DBModeRemote {
			fmt.Fprintf(os.Stderr, "Error: mode must be 'local' or 'remote'\n")
			os.Exit(1)
		}

		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx := cmd.Context()
		current, err := primary.GetSystemConfig(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading system config: %v\n", err)
			os.Exit(1)
		}
		if mode == store.DBModeRemote && current.RemoteDBURL == "" {
			fmt.Fprintf(os.Stderr, "Error: remote mode requires a remote URL (run 'asistencia config set-urls' first)\n")
			os.Exit(1)
		}

		upd := store.SystemConfigUpdate{
			DBMode:      mode,
			LocalDBURL:  current.LocalDBURL,
			RemoteDBURL: current.RemoteDBURL,
			SyncActive:  current.SyncActive,
		}
		if cmd.Flags().Changed("sync") {
			upd.SyncActive = setModeSync
		}

		if _, err := primary.UpdateSystemConfig(ctx, upd); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Database mode set to %s\n", ui.RenderPass("✓"), mode)
	},
}

func init() {
	configSetURLsCmd.Flags().StringVar(&setURLsLocal, "local", "", "local database URL")
	configSetURLsCmd.Flags().StringVar(&setURLsRemote, "remote", "", "remote database URL")
	configSetModeCmd.Flags().BoolVar(&setModeSync, "sync", false, "enable automatic background sync")
	configCmd.AddCommand(configSetURLsCmd)
	configCmd.AddCommand(configSetModeCmd)
	rootCmd.AddCommand(configCmd)
}
