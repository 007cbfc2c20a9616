package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/me/authkit/pkg/model"
	"github.com/spf13/cobra"
)

// printAck prints the "message" of an acknowledgement body, or the raw body
// when it has none.
func printAck(w io.Writer, raw json.RawMessage, fallback string) {
	var ack model.MessageResponse
	if err := json.Unmarshal(raw, &ack); err == nil && ack.Message != "" {
		fmt.Fprintln(w, ack.Message)
		return
	}
	if len(raw) > 0 {
		fmt.Fprintln(w, string(raw))
		return
	}
	fmt.Fprintln(w, fallback)
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset link",
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			resp, err := a.mgr.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return err
			}
			printAck(cmd.OutOrStdout(), resp, "Reset link requested.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address of the account")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newVerifyResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-reset TOKEN",
		Short: "Check a password reset token",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			resp, err := a.mgr.VerifyResetToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printAck(cmd.OutOrStdout(), resp, "Token is valid.")
			return nil
		}),
	}
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var password, confirm string

	cmd := &cobra.Command{
		Use:   "reset-password TOKEN",
		Short: "Set a new password with a reset token",
		Args:  cobra.ExactArgs(1),
		RunE: a.withSession(func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, password, "New password: ")
			if err != nil {
				return err
			}
			cf, err := passwordFlag(cmd, confirm, "Confirm password: ")
			if err != nil {
				return err
			}
			resp, err := a.mgr.ResetPassword(cmd.Context(), args[0], pw, cf)
			if err != nil {
				return err
			}
			printAck(cmd.OutOrStdout(), resp, "Password updated.")
			return nil
		}),
	}

	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "New password again (prompted if omitted)")
	return cmd
}
