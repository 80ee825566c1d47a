package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/store"
	syncer "github.com/dcastano/asistencia/internal/sync"
	"github.com/dcastano/asistencia/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Synchronize local and remote databases",
	Long: `Reconcile data between the configured local and remote databases.

Users are matched by email, attendance records by owner, timestamp and
type, and offices by name. Both directions are idempotent: running the
same sync twice makes no further changes.`,
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push local data to the remote database",
	Run: func(cmd *cobra.Command, args []string) {
		runSyncCommand(cmd, syncer.DirectionPush)
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull remote data into the local database",
	Run: func(cmd *cobra.Command, args []string) {
		runSyncCommand(cmd, syncer.DirectionPull)
	},
}

var syncVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check connectivity and compare row counts across both databases",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		sysCfg, err := primary.GetSystemConfig(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading system config: %v\n", err)
			os.Exit(1)
		}

		ok := true
		ok = printProbe(ctx, "Local", sysCfg.LocalDBURL) && ok
		ok = printProbe(ctx, "Remote", sysCfg.RemoteDBURL) && ok
		if !ok {
			os.Exit(1)
		}

		local, err := openEndpoint(ctx, sysCfg.LocalDBURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening local database: %v\n", err)
			os.Exit(1)
		}
		defer local.Close()
		remote, err := openEndpoint(ctx, sysCfg.RemoteDBURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening remote database: %v\n", err)
			os.Exit(1)
		}
		defer remote.Close()

		fmt.Printf("\n   %-12s %8s %8s\n", "TABLE", "LOCAL", "REMOTE")
		match := true
		match = printCountRow(ctx, "users", local.CountUsers, remote.CountUsers) && match
		match = printCountRow(ctx, "attendance", local.CountAttendance, remote.CountAttendance) && match
		match = printCountRow(ctx, "offices", local.CountOffices, remote.CountOffices) && match
		fmt.Println()
		if !match {
			fmt.Printf("%s Databases differ; run `asistencia sync push` or `sync pull`\n", ui.RenderWarn("⚠"))
			os.Exit(1)
		}
		fmt.Printf("%s Row counts match\n", ui.RenderPass("✓"))
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show synchronization configuration and last sync time",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx := cmd.Context()
		sysCfg, err := primary.GetSystemConfig(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading system config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("\n%s Sync Status\n\n", ui.RenderAccent("📊"))
		fmt.Printf("   Mode:        %s\n", sysCfg.DBMode)
		fmt.Printf("   Local URL:   %s\n", orUnset(sysCfg.LocalDBURL))
		fmt.Printf("   Remote URL:  %s\n", orUnset(sysCfg.RemoteDBURL))
		fmt.Printf("   Auto-sync:   %v\n", sysCfg.SyncActive)
		if sysCfg.LastSyncAt != nil {
			fmt.Printf("   Last sync:   %s (%s ago)\n",
				sysCfg.LastSyncAt.Local().Format(time.RFC1123),
				time.Since(*sysCfg.LastSyncAt).Round(time.Second))
		} else {
			fmt.Printf("   Last sync:   never\n")
		}

		users, _ := primary.CountUsers(ctx)
		attendance, _ := primary.CountAttendance(ctx)
		offices, _ := primary.CountOffices(ctx)
		fmt.Printf("\n   Local rows:  %d users, %d attendance, %d offices\n\n",
			users, attendance, offices)
	},
}

func runSyncCommand(cmd *cobra.Command, direction syncer.Direction) {
	cfg := loadConfig()
	primary := openPrimary(cmd, cfg)
	defer primary.Close()

	rec := syncer.New(primary, newComponentLogger("[sync] "), nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	fmt.Printf("%s Starting %s...\n", ui.RenderAccent("🔄"), direction)
	start := time.Now()

	var (
		report *syncer.Report
		err    error
	)
	if direction == syncer.DirectionPush {
		report, err = rec.Push(ctx)
	} else {
		report, err = rec.Pull(ctx)
	}
	if err != nil {
		if stage := syncer.Stage(err); stage != "" {
			fmt.Fprintf(os.Stderr, "%s Failed during %q: %v\n", ui.RenderError("✗"), stage, err)
		} else {
			fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderError("✗"), err)
		}
		os.Exit(1)
	}

	fmt.Printf("%s %s in %v\n", ui.RenderPass("✓"), report.Message(), time.Since(start).Round(time.Millisecond))
	fmt.Printf("   Users:      %d\n", report.Users)
	fmt.Printf("   Attendance: %d\n", report.Attendance)
	fmt.Printf("   Offices:    %d\n", report.Offices)
	if report.SkippedAttendance > 0 {
		fmt.Printf("   %s %d attendance records skipped (owner missing on target)\n",
			ui.RenderWarn("⚠"), report.SkippedAttendance)
	}
}

func openEndpoint(ctx context.Context, url string) (*store.Store, error) {
	st, err := store.Open(url)
	if err != nil {
		return nil, err
	}
	if err := st.InitSchema(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func printCountRow(ctx context.Context, table string, local, remote func(context.Context) (int, error)) bool {
	l, err := local(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting local %s: %v\n", table, err)
		return false
	}
	r, err := remote(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting remote %s: %v\n", table, err)
		return false
	}
	marker := ui.RenderPass("✓")
	if l != r {
		marker = ui.RenderWarn("⚠")
	}
	fmt.Printf("   %-12s %8d %8d  %s\n", table, l, r, marker)
	return l == r
}

func printProbe(ctx context.Context, label, url string) bool {
	if url == "" {
		fmt.Printf("%s %s: not configured\n", ui.RenderWarn("⚠"), label)
		return false
	}
	res := store.Probe(ctx, url)
	if res.Reachable {
		fmt.Printf("%s %s: connected (%s)\n", ui.RenderPass("✓"), label, url)
		return true
	}
	fmt.Printf("%s %s: %s\n", ui.RenderError("✗"), label, res.Reason)
	return false
}

func orUnset(s string) string {
	if s == "" {
		return ui.RenderMuted("(not set)")
	}
	return s
}

func init() {
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncVerifyCmd)
	syncCmd.AddCommand(syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
