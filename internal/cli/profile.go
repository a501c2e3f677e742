package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/ui"
)

func newProfileCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			u := e.app.Session.State().User
			t := ui.Current()
			fmt.Fprintln(e.out, ui.Panel([]string{
				t.Title.Render("Profile"),
				"",
				t.Muted.Render("Username ") + u.Username,
				t.Muted.Render("Email    ") + u.Email,
			}))
			return nil
		},
	}
	cmd.AddCommand(newProfileSetCommand(e))
	return cmd
}

func newProfileSetCommand(e *env) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change your username and email",
		Long: `Replace your profile. Fields you leave out keep their current value.

Todos are matched to you by email, so changing it hides the items you
created under the old address until you change it back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			cur := e.app.Session.State().User
			form := ProfileForm{Username: cur.Username, Email: cur.Email}

			flagged := cmd.Flags().Changed("username") || cmd.Flags().Changed("email")
			switch {
			case flagged:
				if cmd.Flags().Changed("username") {
					form.Username = username
				}
				if cmd.Flags().Changed("email") {
					form.Email = email
				}
			case e.interactive():
				if err := promptProfile(&form); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return failErr("profile edit aborted")
					}
					return failErr("profile form: %v", err)
				}
			default:
				return usageErr("usage: tada profile set [--username <name>] [--email <email>]")
			}

			if err := form.Validate(); err != nil {
				return usageErr("%v", err)
			}
			if err := e.app.UpdateProfile(form.User()); err != nil {
				return failErr("profile: %v", err)
			}
			ui.OK(e.out, "profile updated")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email (owns your todos)")
	return cmd
}
