package commands

import (
	"github.com/asaskevich/govalidator"
	"github.com/spf13/cobra"

	dErrors "inkwell/pkg/domain-errors"
)

var verifyEmailCmd = &cobra.Command{
	Use:   "verify-email [token]",
	Short: "Request a verification email, or redeem a token from one",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerifyEmail,
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Request a password reset email",
	Args:  cobra.ExactArgs(1),
	RunE:  runForgotPassword,
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <token> <new-password>",
	Short: "Redeem a reset token and sign in with the new password",
	Args:  cobra.ExactArgs(2),
	RunE:  runResetPassword,
}

func init() {
	rootCmd.AddCommand(verifyEmailCmd, forgotPasswordCmd, resetPasswordCmd)
}

func runVerifyEmail(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var msg string
	if len(args) == 1 {
		msg, err = a.Users.VerifyAccount(ctx, args[0])
	} else {
		msg, err = a.Users.SendVerificationEmail(ctx)
	}
	if err != nil {
		return err
	}
	successf("%s", msg)
	return nil
}

func runForgotPassword(cmd *cobra.Command, args []string) error {
	if !govalidator.IsEmail(args[0]) {
		return dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	msg, err := a.Users.ForgotPassword(ctx, args[0])
	if err != nil {
		return err
	}
	successf("%s", msg)
	return nil
}

func runResetPassword(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.Users.ResetPassword(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	successf("password reset, signed in as %s", sess.User.Username)
	return nil
}
