package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marcosbarbosa-dev/appfinance/internal/services"
	"github.com/marcosbarbosa-dev/appfinance/internal/session"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if user := c.Session.User(); user != nil {
					return fmt.Errorf("already signed in as %s, log out first", user.Username)
				}

				out := cmd.OutOrStdout()
				in := newInput(cmd.InOrStdin())
				var username string
				if len(args) == 1 {
					username = args[0]
				} else {
					var err error
					if username, err = in.line(out, "Username: "); err != nil {
						return fmt.Errorf("failed to read username: %w", err)
					}
				}
				password, err := in.secret(out, "Password: ")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				user, err := c.Session.Login(cmd.Context(), username, password)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Welcome, %s.", user.Name)))
				if c.Session.State() == session.FirstLoginRequired {
					fmt.Fprintln(out, warningStyle.Render(`This is your first sign-in. Choose a new password with "appfinance password".`))
				}
				return nil
			})
		},
	}
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if err := c.Session.Logout(cmd.Context(), ""); err != nil {
					if errors.Is(err, session.ErrBusy) {
						return errors.New("not signed in")
					}
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), subtleStyle.Render("Signed out."))
				return nil
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				out := cmd.OutOrStdout()
				user := c.Session.User()
				if user == nil {
					if reason := c.Session.Reason(); reason != "" {
						fmt.Fprintln(out, warningStyle.Render(reason))
					}
					fmt.Fprintln(out, subtleStyle.Render("Not signed in."))
					return nil
				}

				lines := []string{
					titleStyle.Render(user.Name),
					fmt.Sprintf("username  %s", user.Username),
					fmt.Sprintf("role      %s", user.Role),
					fmt.Sprintf("state     %s", c.Session.State()),
				}
				if user.SuspensionDate != "" {
					lines = append(lines, fmt.Sprintf("access    until %s", user.SuspensionDate))
				}
				if support := c.Sync.Snapshot().SupportInfo; support != "" {
					lines = append(lines, "", subtleStyle.Render(support))
				}
				fmt.Fprintln(out, boxStyle.Render(strings.Join(lines, "\n")))
				return nil
			})
		},
	}
}

func passwordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Choose a new password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				out := cmd.OutOrStdout()
				in := newInput(cmd.InOrStdin())
				password, err := in.secret(out, "New password: ")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				confirm, err := in.secret(out, "Confirm password: ")
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}

				if c.Session.State() == session.FirstLoginRequired {
					_, err = c.Session.CompleteFirstLogin(cmd.Context(), password, confirm)
				} else {
					if _, err = c.active(); err != nil {
						return err
					}
					_, err = c.Session.UpdateProfile(cmd.Context(), services.ProfileUpdate{Password: password, Confirm: confirm})
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render("Password updated."))
				return nil
			})
		},
	}
}

func profileCmd() *cobra.Command {
	var name, avatar string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name or avatar",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client) error {
				if _, err := c.active(); err != nil {
					return err
				}
				var update services.ProfileUpdate
				if cmd.Flags().Changed("name") {
					update.Name = &name
				}
				if cmd.Flags().Changed("avatar") {
					update.Avatar = &avatar
				}
				if update.Name == nil && update.Avatar == nil {
					return errors.New("nothing to change, pass --name or --avatar")
				}
				user, err := c.Session.UpdateProfile(cmd.Context(), update)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Profile updated for %s.", user.Name)))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar tag (male_shadow or female_shadow)")
	return cmd
}
