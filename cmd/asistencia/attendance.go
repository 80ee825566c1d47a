package main

import (
	"fmt"
	"os"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/ui"
)

var attendanceCmd = &cobra.Command{
	Use:     "attendance",
	GroupID: "data",
	Short:   "Inspect attendance records",
}

var attendanceSince string

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records, newest first",
	Long: `List attendance records from the local database.

The --since flag accepts natural language:

  asistencia attendance list --since "yesterday"
  asistencia attendance list --since "last monday"
  asistencia attendance list --since "3 days ago"`,
	Run: func(cmd *cobra.Command, args []string) {
		since := time.Time{}
		if attendanceSince != "" {
			parser := when.New(nil)
			parser.Add(en.All...)
			parser.Add(common.All...)
			r, err := parser.Parse(attendanceSince, time.Now())
			if err != nil || r == nil {
				fmt.Fprintf(os.Stderr, "Error: cannot parse %q as a time\n", attendanceSince)
				os.Exit(1)
			}
			since = r.Time
		}

		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		records, err := primary.ListAttendanceSince(cmd.Context(), since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing attendance: %v\n", err)
			os.Exit(1)
		}
		if len(records) == 0 {
			fmt.Printf("%s No attendance records\n", ui.RenderWarn("⚠"))
			return
		}

		fmt.Printf("\n%-5s %-25s %-10s %-25s %s\n", "ID", "EMPLOYEE", "TYPE", "TIMESTAMP", "STATUS")
		for _, a := range records {
			name := a.UserName
			if name == "" {
				name = a.UserEmail
			}
			fmt.Printf("%-5d %-25s %-10s %-25s %s\n",
				a.ID, name, a.Type, a.Timestamp.Local().Format("2006-01-02 15:04:05"), a.Status)
		}
		fmt.Println()
	},
}

func init() {
	attendanceListCmd.Flags().StringVar(&attendanceSince, "since", "", "only records after this time (natural language ok)")
	attendanceCmd.AddCommand(attendanceListCmd)
	rootCmd.AddCommand(attendanceCmd)
}
