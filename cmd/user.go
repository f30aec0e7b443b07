package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bugboard/bugboard/internal/auth"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/output"
	"github.com/bugboard/bugboard/internal/permission"
)

var (
	userName     string
	userRole     string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
	Long:  "Create, list, update, and remove accounts. Account management requires the ADMIN role.",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create an account (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userAddRun(args[0])
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <email>",
	Short: "Update an account (self for name/password, admin for role)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userUpdateRun(args[0])
	},
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <email>",
	Aliases: []string{"rm"},
	Short:   "Delete an account (admin only)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userDeleteRun(args[0])
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userRole, "role", "USER", "Role: ADMIN, USER, EXTERNAL")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Initial password (required)")
	_ = userAddCmd.MarkFlagRequired("password")

	userUpdateCmd.Flags().StringVar(&userName, "name", "", "New display name")
	userUpdateCmd.Flags().StringVar(&userRole, "role", "", "New role (admin only)")
	userUpdateCmd.Flags().StringVar(&userPassword, "password", "", "New password")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func userAddRun(email string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	// Bootstrap case: the very first account is created without an actor
	// and always gets the ADMIN role.
	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	bootstrap := len(users) == 0

	role := models.RoleAdmin
	if !bootstrap {
		actor, err := getActor(ctx)
		if err != nil {
			return err
		}
		if !permission.Can(actor, permission.ActionManageUsers, nil) {
			return fmt.Errorf("manage users: %w", models.ErrForbidden)
		}
		if role, err = models.ParseRole(userRole); err != nil {
			return err
		}
	} else if userRole != "" && userRole != string(models.RoleAdmin) {
		ui.Warning("First account is always ADMIN, ignoring --role=%s", userRole)
	}

	hash, err := auth.HashPassword(userPassword)
	if err != nil {
		return err
	}

	u := &models.User{
		Email:        email,
		Name:         userName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.CreateUser(ctx, u); err != nil {
		return err
	}

	ui.Success("Created %s account %s (%s)", u.Role, output.Cyan(email), shortID(u.ID))
	if bootstrap {
		ui.Info("Set actor_email: %s in your config to act as this account.", email)
	}
	return nil
}

func userListRun() error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		ui.Info("No accounts yet. Create one with 'bugboard user add'.")
		return nil
	}

	table := ui.Table([]string{"ID", "Email", "Name", "Role"})
	for _, u := range users {
		table.Append([]string{shortID(u.ID), u.Email, u.Name, string(u.Role)})
	}
	table.Render()
	return nil
}

func userUpdateRun(email string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("account not found: %s", email)
	}

	admin := permission.Can(actor, permission.ActionManageUsers, nil)
	if !admin && actor.ID != u.ID {
		return fmt.Errorf("update account: %w", models.ErrForbidden)
	}

	if userName != "" {
		u.Name = userName
	}
	if userPassword != "" {
		hash, err := auth.HashPassword(userPassword)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	if userRole != "" {
		if !admin {
			return fmt.Errorf("change role: %w", models.ErrForbidden)
		}
		role, err := models.ParseRole(userRole)
		if err != nil {
			return err
		}
		u.Role = role
	}

	if err := s.UpdateUser(ctx, u); err != nil {
		return err
	}

	ui.Success("Updated account %s", output.Cyan(email))
	return nil
}

func userDeleteRun(email string) error {
	s, err := getStore()
	if err != nil {
		return err
	}
	ctx := context.Background()

	actor, err := getActor(ctx)
	if err != nil {
		return err
	}
	if !permission.Can(actor, permission.ActionManageUsers, nil) {
		return fmt.Errorf("manage users: %w", models.ErrForbidden)
	}

	u, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("account not found: %s", email)
	}
	if err := s.DeleteUser(ctx, u.ID); err != nil {
		return err
	}

	ui.Success("Deleted account %s", output.Cyan(email))
	return nil
}
