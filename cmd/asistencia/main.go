// Command asistencia runs the employee attendance service and its
// management CLI.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/config"
	"github.com/dcastano/asistencia/internal/store"
)

var (
	configFile string

	rootCmd = &cobra.Command{
		Use:   "asistencia",
		Short: "Employee attendance service with dual-database sync",
		Long: `asistencia tracks employee check-ins and check-outs against a local
SQLite database and can mirror its data to a remote Postgres or Turso
database on demand or on a schedule.

Most commands operate on the local database named by the configuration
(ASISTENCIA_DATABASE_URL or asistencia.yaml).`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")
	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "sync", Title: "Synchronization:"},
		&cobra.Group{ID: "data", Title: "Data management:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the service configuration for a CLI command.
func loadConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openPrimary opens the configured local store and makes sure both the
// data and configuration schemas exist.
func openPrimary(cmd *cobra.Command, cfg *config.Config) *store.Store {
	ctx := cmd.Context()
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	if err := st.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing schema: %v\n", err)
		os.Exit(1)
	}
	if err := st.InitConfigSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing config schema: %v\n", err)
		os.Exit(1)
	}
	return st
}

func newComponentLogger(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, log.LstdFlags)
}
