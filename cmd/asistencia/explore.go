package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/ui"
)

var exploreCmd = &cobra.Command{
	Use:     "explore",
	GroupID: "data",
	Short:   "List SQLite database files in the data directory",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		entries, err := os.ReadDir(cfg.DataDir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("%s Data directory %s does not exist\n", ui.RenderWarn("⚠"), cfg.DataDir)
				return
			}
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", cfg.DataDir, err)
			os.Exit(1)
		}

		found := 0
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if ext != ".db" && ext != ".sqlite" {
				continue
			}
			info, err := e.Info()
			size := int64(0)
			if err == nil {
				size = info.Size()
			}
			url := "file:" + filepath.ToSlash(filepath.Join(cfg.DataDir, e.Name()))
			fmt.Printf("%s %-30s %8d KB   %s\n", ui.RenderAccent("•"), e.Name(), size/1024, url)
			found++
		}
		if found == 0 {
			fmt.Printf("%s No database files in %s\n", ui.RenderWarn("⚠"), cfg.DataDir)
		}
	},
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}
