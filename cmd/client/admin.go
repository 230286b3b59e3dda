package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/marcosbarbosa-dev/appfinance/internal/errors"
	"github.com/marcosbarbosa-dev/appfinance/internal/models"
	"github.com/marcosbarbosa-dev/appfinance/internal/services"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Administer users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout(), "Username", "Name", "Role", "Status", "Access until", "UID")
				for _, u := range c.Users.All() {
					status := successStyle.Render("active")
					switch {
					case !u.IsActive:
						status = errorStyle.Render("inactive")
					case u.IsFirstLogin:
						status = warningStyle.Render("first login")
					}
					until := u.SuspensionDate
					if until == "" {
						until = subtleStyle.Render("lifetime")
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.Username, u.Name, u.Role, status, until, subtleStyle.Render(u.UID))
				}
				return w.Flush()
			})
		},
	})

	var name, role, until string
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user with the default password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				created, err := c.Users.Save(cmd.Context(), &models.User{
					Username:       args[0],
					Name:           name,
					Role:           models.Role(role),
					SuspensionDate: until,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("User %s created. They must choose a password at first sign-in.", created.Username)))
				return nil
			})
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&role, "role", string(models.RoleUser), "user or admin")
	add.Flags().StringVar(&until, "until", "", "last day of access, YYYY-MM-DD (default lifetime)")
	cmd.AddCommand(add)

	var (
		newName, newRole, newUntil string
		active                     bool
	)
	edit := &cobra.Command{
		Use:   "edit <uid>",
		Short: "Change a user's name, role, status or access period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				row, ok := c.Users.Get(args[0])
				if !ok {
					return errors.New("no such user")
				}
				flags := cmd.Flags()
				if flags.Changed("name") {
					row.Name = newName
				}
				if flags.Changed("role") {
					row.Role = models.Role(newRole)
				}
				if flags.Changed("active") {
					row.IsActive = active
				}
				if flags.Changed("until") {
					row.SuspensionDate = newUntil
				}
				saved, err := c.Users.Save(cmd.Context(), &row)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("User %s updated.", saved.Username)))
				return nil
			})
		},
	}
	edit.Flags().StringVar(&newName, "name", "", "display name")
	edit.Flags().StringVar(&newRole, "role", "", "user or admin")
	edit.Flags().BoolVar(&active, "active", true, "whether the user may sign in")
	edit.Flags().StringVar(&newUntil, "until", "", "last day of access, empty for lifetime")
	cmd.AddCommand(edit)

	cmd.AddCommand(userActionCmd("reset-password", "Restore the default password", "Password reset for %s.", (*client).resetPassword))
	cmd.AddCommand(userActionCmd("refresh", "Make the user's open session reload", "Refresh sent to %s.", (*client).forceRefresh))

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				if err := c.Users.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("User deleted."))
				return nil
			})
		},
	})
	return cmd
}

func (c *client) resetPassword(cmd *cobra.Command, uid string) (*models.User, error) {
	return c.Users.ResetPassword(cmd.Context(), uid)
}

func (c *client) forceRefresh(cmd *cobra.Command, uid string) (*models.User, error) {
	return c.Users.ForceRefresh(cmd.Context(), uid)
}

func userActionCmd(use, short, done string, act func(*client, *cobra.Command, string) (*models.User, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <uid>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				user, err := act(c, cmd, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(done, user.Username)))
				return nil
			})
		},
	}
}

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Read or clear the audit log",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show the most recent entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				w := newTable(cmd.OutOrStdout(), "When", "Who", "Action", "Details")
				for _, l := range c.Logs.Newest() {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Timestamp.Local().Format(time.DateTime), l.UserName, l.Action, l.Details)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every audit entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.admin(); err != nil {
					return err
				}
				n, err := c.Logs.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render(fmt.Sprintf("Removed %d entries.", n)))
				return nil
			})
		},
	})
	return cmd
}

func systemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Show or change the global configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the global configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				cfg := c.Sync.Snapshot()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "locked         %t\n", cfg.IsSystemLocked)
				fmt.Fprintf(out, "logging        %t\n", cfg.IsLoggingEnabled)
				fmt.Fprintf(out, "maintenance    %s\n", cfg.LockMessage())
				fmt.Fprintf(out, "support        %s\n", cfg.SupportInfo)
				return nil
			})
		},
	})

	var (
		lock, logging    bool
		message, support string
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Publish configuration changes to every client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				admin, err := c.admin()
				if err != nil {
					return err
				}
				if !c.Online(cmd.Context()) {
					return apperrors.ErrOfflineBlocked
				}
				var update services.ConfigUpdate
				flags := cmd.Flags()
				if flags.Changed("lock") {
					update.IsSystemLocked = &lock
				}
				if flags.Changed("logging") {
					update.IsLoggingEnabled = &logging
				}
				if flags.Changed("message") {
					update.MaintenanceMessage = &message
				}
				if flags.Changed("support") {
					update.SupportInfo = &support
				}
				if _, err := c.Services.Config.Update(cmd.Context(), admin, update); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Configuration published."))
				return nil
			})
		},
	}
	set.Flags().BoolVar(&lock, "lock", false, "turn away every non-admin session")
	set.Flags().BoolVar(&logging, "logging", true, "record admin sign-ins and user administration")
	set.Flags().StringVar(&message, "message", "", "maintenance message shown while locked")
	set.Flags().StringVar(&support, "support", "", "support contact shown to users")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "reload-all",
		Short: "Make every open client reload its data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				admin, err := c.admin()
				if err != nil {
					return err
				}
				if !c.Online(cmd.Context()) {
					return apperrors.ErrOfflineBlocked
				}
				if _, err := c.Services.Config.RotateGlobalRefresh(cmd.Context(), admin); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Reload requested."))
				return nil
			})
		},
	})
	return cmd
}
