package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/session"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newLoginCommand(e *env) *cobra.Command {
	var form LoginForm
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in (demo@example.com / password123)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.app.Session.Authenticated() {
				ui.OK(e.out, "already logged in as "+e.app.Session.Owner())
				return nil
			}
			if form.Email == "" || form.Password == "" {
				if !e.interactive() {
					return usageErr("usage: tada login --email <email> --password <password>")
				}
				if err := promptLogin(&form); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return failErr("login aborted")
					}
					return failErr("login form: %v", err)
				}
			}
			if err := form.Validate(); err != nil {
				return usageErr("%v", err)
			}

			if e.cfg.LoginDelay > 0 {
				ui.Hint(e.errOut, "Signing in...")
			}
			ok, err := e.app.Login(cmd.Context(), form.Email, form.Password)
			if err != nil {
				return failErr("login: %v", err)
			}
			if !ok {
				return failErr("Invalid email or password. Try: %s / %s", session.DemoEmail, session.DemoPassword)
			}
			ui.OK(e.out, "logged in as "+e.app.Session.Owner())
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete stored session and todos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e.app.Logout()
			ui.OK(e.out, "logged out")
			return nil
		},
	}
}

func newStatusCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether you are signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := e.app.Session.State()
			if !st.IsAuthenticated {
				ui.Hint(e.out, "not logged in")
				fmt.Fprintln(e.out, "Run: tada login")
				return nil
			}
			fmt.Fprintf(e.out, "logged in as %s <%s>\n", st.User.Username, st.User.Email)
			fmt.Fprintf(e.out, "backend: %s (%s)\n", e.cfg.Backend, e.cfg.DataDir)
			return nil
		},
	}
}

// whoami decodes the session token locally; opaque tokens print basic info.
func newWhoAmICommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Decode the current session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.requireAuth(); err != nil {
				return err
			}
			claims, err := e.app.Claims()
			if err != nil {
				fmt.Fprintln(e.out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(e.out, "email:", e.app.Session.Owner())
				return nil
			}
			fmt.Fprintln(e.out, "email:  ", claims.Email)
			fmt.Fprintln(e.out, "issuer: ", claims.Issuer)
			fmt.Fprintln(e.out, "token:  ", claims.ID)
			if claims.IssuedAt != nil {
				fmt.Fprintln(e.out, "issued: ", claims.IssuedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}
