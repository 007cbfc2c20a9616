package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSignUpCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long:  "Create an account on the auth API. Sign-up does not log in.",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			if err := a.mgr.SignUp(cmd.Context(), name, email, pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Log in with: authkit login --email %s\n", email, email)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	var admin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, password, "Password: ")
			if err != nil {
				return err
			}

			login := a.mgr.Login
			if admin {
				login = a.mgr.LoginAdmin
			}
			sess, err := login(cmd.Context(), email, pw)
			if sess == nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", describeSession(sess))
			// Non-nil when the session could not be saved.
			return err
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Log in through the administrator endpoint")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		}),
	}
}

func newWhoAmICmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Long:  "Restore the stored session and print it. An expired session is logged out.",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			sess, err := a.mgr.RestoreSession(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			now := time.Now()
			if sess != nil && sess.IsExpired(now) {
				if err := a.mgr.Logout(cmd.Context()); err != nil {
					return err
				}
				if format == formatText {
					fmt.Fprintf(out, "Session for %s expired at %s; logged out.\n", sess.Email, sess.ExpiresAt.Local().Format(time.RFC3339))
					return nil
				}
				sess = nil
			}

			if format != formatText {
				return writeStructured(out, format, newSessionView(sess, now))
			}
			if sess == nil {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			fmt.Fprintf(out, "Logged in as %s\n", describeSession(sess))
			fmt.Fprintf(out, "Expires in %s\n", sess.Remaining(now).Round(time.Second))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format (text, json, yaml)")
	return cmd
}
