package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"aibvs/core/auth"
	"aibvs/core/store"
)

var (
	colorGreen  = color.New(color.FgGreen).SprintFunc()
	colorRed    = color.New(color.FgRed).SprintFunc()
	colorYellow = color.New(color.FgYellow).SprintFunc()
	colorFaint  = color.New(color.Faint).SprintFunc()
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operator accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <username> <password> <full-name>",
	Short: "Create an operator account",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		db, err := store.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Migrate(ctx, db, logger); err != nil {
			return err
		}
		role, _ := cmd.Flags().GetString("role")
		if !store.IsValidRole(role) {
			return fmt.Errorf("invalid role %q", role)
		}
		users := store.NewUsersStore(db)
		existing, err := users.FindByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("user %q already exists", args[0])
		}
		hash, err := auth.HashPassword(args[1])
		if err != nil {
			return err
		}
		id, err := users.Create(ctx, &store.User{
			Username:     args[0],
			PasswordHash: hash,
			FullName:     args[2],
			Role:         role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created user %s (id %d, role %s)\n", colorGreen(args[0]), id, role)
		return nil
	},
}

var systemsCmd = &cobra.Command{
	Use:   "systems",
	Short: "Inspect the equipment inventory",
}

var systemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List communication systems and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		db, err := store.Open(cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		systems, err := store.NewSystemsStore(db).List(ctx)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "Name", "Type", "Status", "Frequency", "Last check"})
		for _, sys := range systems {
			table.Append([]string{
				fmt.Sprintf("%d", sys.ID),
				sys.Name,
				sys.Type,
				coloredStatus(sys.Status),
				sys.Frequency,
				sys.LastCheck.Format(time.RFC3339),
			})
		}
		table.Render()
		return nil
	},
}

func coloredStatus(status string) string {
	switch status {
	case store.SystemActive:
		return colorGreen(status)
	case store.SystemFailure:
		return colorRed(status)
	case store.SystemBackup:
		return colorYellow(status)
	default:
		return colorFaint(status)
	}
}

func init() {
	userCreateCmd.Flags().String("role", store.RoleATSEP, "account role (admin or atsep)")
	userCmd.AddCommand(userCreateCmd)
	systemsCmd.AddCommand(systemsListCmd)
}
