package cli

import (
	"context"
	"errors"

	"github.com/jrsteele09/go-story-client/client"
	"github.com/jrsteele09/go-story-client/render"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				snap, err := c.Login(ctx, username, password)
				if err != nil {
					return err
				}
				p.Message("Logged in as %s.", snap.Session.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	var username, password, name string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log into it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				snap, err := c.Signup(ctx, username, password, name)
				if err != nil {
					return err
				}
				p.Message("Welcome, %s! You are logged in as %s.", snap.Session.Name, snap.Session.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, snap client.Snapshot, p *render.Printer) error {
				if !snap.Authenticated() {
					p.Message("Not logged in.")
					return nil
				}
				if _, err := c.Logout(ctx); err != nil {
					return err
				}
				p.Message("Logged out.")
				return nil
			})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(_ context.Context, _ *client.Client, snap client.Snapshot, p *render.Printer) error {
				p.Profile(snap.Session)
				return nil
			})
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile commands",
	}
	cmd.AddCommand(newProfileUpdateCmd(app))
	return cmd
}

func newProfileUpdateCmd(app *App) *cobra.Command {
	var fields sessions.ProfileFields

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the display name and, optionally, the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(ctx context.Context, c *client.Client, _ client.Snapshot, p *render.Printer) error {
				snap, err := c.UpdateProfile(ctx, fields)
				if err != nil {
					return err
				}
				p.Profile(snap.Session)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "New display name")
	cmd.Flags().StringVar(&fields.Password, "password", "", "New password (unchanged when empty)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account commands",
	}
	cmd.AddCommand(newAccountDeleteCmd(app))
	return cmd
}

func newAccountDeleteCmd(app *App) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the account and all of its stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to delete the account without --yes")
			}
			return app.run(cmd, func(ctx context.Context, c *client.Client, snap client.Snapshot, p *render.Printer) error {
				username := ""
				if snap.Session != nil {
					username = snap.Session.Username
				}
				if _, err := c.DeleteAccount(ctx); err != nil {
					return err
				}
				p.Message("Account %s deleted.", username)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the deletion")
	return cmd
}
