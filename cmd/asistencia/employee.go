package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dcastano/asistencia/internal/auth"
	"github.com/dcastano/asistencia/internal/httpapi"
	"github.com/dcastano/asistencia/internal/store"
	"github.com/dcastano/asistencia/internal/ui"
)

var employeeCmd = &cobra.Command{
	Use:     "employee",
	GroupID: "data",
	Short:   "Manage employee accounts",
}

var (
	empName     string
	empEmail    string
	empPassword string
	empRole     string
)

var employeeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an employee account",
	Long: `Create an employee account in the local database.

Missing fields are collected interactively. A random 6-character badge
code is assigned automatically.`,
	Run: func(cmd *cobra.Command, args []string) {
		if empRole == "" {
			empRole = store.RoleEmployee
		}

		// Prompt for whatever the flags did not provide.
		var fields []huh.Field
		if empName == "" {
			fields = append(fields, huh.NewInput().Title("Name").Value(&empName).
				Validate(required("name")))
		}
		if empEmail == "" {
			fields = append(fields, huh.NewInput().Title("Email").Value(&empEmail).
				Validate(required("email")))
		}
		if empPassword == "" {
			fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
				Value(&empPassword).Validate(func(s string) error {
				if len(s) < 6 {
					return errors.New("password must be at least 6 characters")
				}
				return nil
			}))
		}
		if len(fields) > 0 {
			form := huh.NewForm(huh.NewGroup(fields...))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Aborted: %v\n", err)
				os.Exit(1)
			}
		}

		switch empRole {
		case store.RoleEmployee, store.RoleAdmin, store.RoleSuperAdmin:
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid role %q\n", empRole)
			os.Exit(1)
		}

		hash, err := auth.HashPassword(empPassword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
			os.Exit(1)
		}

		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		user := &store.User{
			Name:         strings.TrimSpace(empName),
			Email:        strings.TrimSpace(empEmail),
			PasswordHash: hash,
			Role:         empRole,
			Code:         httpapi.NewEmployeeCode(),
			Theme:        "light",
			Language:     "es",
		}
		if err := primary.CreateUser(cmd.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				fmt.Fprintf(os.Stderr, "Error: email %s is already registered\n", user.Email)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error creating employee: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Created %s (%s) with badge code %s\n",
			ui.RenderPass("✓"), user.Name, user.Email, ui.RenderAccent(user.Code))
	},
}

var listRole string

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employee accounts",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		ctx := cmd.Context()
		var (
			users []*store.User
			err   error
		)
		if listRole != "" {
			users, err = primary.ListUsersByRole(ctx, strings.ToUpper(listRole))
		} else {
			users, err = primary.ListUsers(ctx)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing employees: %v\n", err)
			os.Exit(1)
		}
		if len(users) == 0 {
			fmt.Printf("%s No employees found\n", ui.RenderWarn("⚠"))
			return
		}

		fmt.Printf("\n%-5s %-25s %-30s %-12s %s\n", "ID", "NAME", "EMAIL", "ROLE", "CODE")
		for _, u := range users {
			fmt.Printf("%-5d %-25s %-30s %-12s %s\n", u.ID, u.Name, u.Email, u.Role, u.Code)
		}
		fmt.Println()
	},
}

var employeeDemoteCmd = &cobra.Command{
	Use:   "demote [email]",
	Short: "Reset an account back to the EMPLOYEE role",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		primary := openPrimary(cmd, cfg)
		defer primary.Close()

		email := args[0]
		if err := primary.UpdateUserRole(cmd.Context(), email, store.RoleEmployee); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "Error: no account with email %s\n", email)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Error demoting %s: %v\n", email, err)
			os.Exit(1)
		}
		fmt.Printf("%s %s is now %s\n", ui.RenderPass("✓"), email, store.RoleEmployee)
	},
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func init() {
	employeeCreateCmd.Flags().StringVar(&empName, "name", "", "employee name")
	employeeCreateCmd.Flags().StringVar(&empEmail, "email", "", "employee email")
	employeeCreateCmd.Flags().StringVar(&empPassword, "password", "", "initial password")
	employeeCreateCmd.Flags().StringVar(&empRole, "role", "", "account role (EMPLOYEE, ADMIN, SUPER_ADMIN)")
	employeeListCmd.Flags().StringVar(&listRole, "role", "", "filter by role")
	employeeCmd.AddCommand(employeeCreateCmd)
	employeeCmd.AddCommand(employeeListCmd)
	employeeCmd.AddCommand(employeeDemoteCmd)
	rootCmd.AddCommand(employeeCmd)
}
