package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dcastano/asistencia/internal/auth"
	"github.com/dcastano/asistencia/internal/httpapi"
	"github.com/dcastano/asistencia/internal/store"
	"github.com/dcastano/asistencia/internal/ui"
)

// seedFile is the YAML shape accepted by `asistencia seed --file`.
type seedFile struct {
	Users []struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
	Offices []struct {
		Name      string  `yaml:"name"`
		Latitude  float64 `yaml:"latitude"`
		Longitude float64 `yaml:"longitude"`
		Radius    float64 `yaml:"radius"`
	} `yaml:"offices"`
}

var seedPath string

var seedCmd = &cobra.Command{
	Use:     "seed",
	GroupID: "data",
	Short:   "Seed the local database with initial data",
	Long: `Populate an empty local database.

Without --file this creates a SUPER_ADMIN account (admin@local /
admin123, change it immediately) and a default office. With --file it
loads users and offices from a YAML document:

  users:
    - name: Ana
      email: ana@example.com
      password: secret1
      role: ADMIN
  offices:
    - name: Main Office
      latitude: 4.6097
      longitude: -74.0817
      radius: 500`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx := cmd.Context()
		if seedPath == "" {
			seedDefaults(ctx, primary)
			return
		}

		raw, err := os.ReadFile(seedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
			os.Exit(1)
		}
		var sf seedFile
		if err := yaml.Unmarshal(raw, &sf); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing seed file: %v\n", err)
			os.Exit(1)
		}

		created, skipped := 0, 0
		for _, u := range sf.Users {
			role := u.Role
			if role == "" {
				role = store.RoleEmployee
			}
			hash, err := auth.HashPassword(u.Password)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error hashing password for %s: %v\n", u.Email, err)
				os.Exit(1)
			}
			user := &store.User{
				Name:         u.Name,
				Email:        u.Email,
				PasswordHash: hash,
				Role:         role,
				Code:         httpapi.NewEmployeeCode(),
				Theme:        "light",
				Language:     "es",
			}
			if err := primary.CreateUser(ctx, user); err != nil {
				if errors.Is(err, store.ErrDuplicateEmail) {
					skipped++
					continue
				}
				fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", u.Email, err)
				os.Exit(1)
			}
			created++
		}

		for _, o := range sf.Offices {
			office := &store.Office{
				Name:      o.Name,
				Latitude:  o.Latitude,
				Longitude: o.Longitude,
				Radius:    o.Radius,
				UpdatedAt: time.Now().UTC(),
			}
			if err := primary.UpsertOfficeByName(ctx, office); err != nil {
				fmt.Fprintf(os.Stderr, "Error seeding office %s: %v\n", o.Name, err)
				os.Exit(1)
			}
		}

		fmt.Printf("%s Seeded %d users (%d already existed) and %d offices\n",
			ui.RenderPass("✓"), created, skipped, len(sf.Offices))
	},
}

func seedDefaults(ctx context.Context, primary *store.Store) {
	count, err := primary.CountUsers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting users: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Printf("%s Database already has %d users, nothing to do\n", ui.RenderWarn("⚠"), count)
		return
	}

	hash, err := auth.HashPassword("admin123")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}
	admin := &store.User{
		Name:         "Administrator",
		Email:        "admin@local",
		PasswordHash: hash,
		Role:         store.RoleSuperAdmin,
		Code:         httpapi.NewEmployeeCode(),
		Theme:        "light",
		Language:     "es",
	}
	if err := primary.CreateUser(ctx, admin); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating admin account: %v\n", err)
		os.Exit(1)
	}

	office := &store.Office{
		Name:      "Main Office",
		Latitude:  0,
		Longitude: 0,
		Radius:    500,
		UpdatedAt: time.Now().UTC(),
	}
	if err := primary.UpsertOfficeByName(ctx, office); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating default office: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s Created admin@local (password admin123, change it) and a default office\n",
		ui.RenderPass("✓"))
}

func init() {
	seedCmd.Flags().StringVar(&seedPath, "file", "", "YAML seed file")
	rootCmd.AddCommand(seedCmd)
}
