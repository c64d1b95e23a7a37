package commands

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/spf13/cobra"

	"inkwell/internal/api"
	dErrors "inkwell/pkg/domain-errors"
)

var (
	loginUsername string
	loginPassword string

	registerUsername string
	registerEmail    string
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Drop the persisted session",
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "account username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password")
	loginCmd.MarkFlagRequired("username")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVarP(&registerUsername, "username", "u", "", "account username")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "account password")
	registerCmd.MarkFlagRequired("username")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.Users.Login(ctx, api.LoginInput{Username: loginUsername, Password: loginPassword})
	if err != nil {
		return err
	}
	successf("signed in as %s", sess.User.Username)
	return nil
}

func runRegister(cmd *cobra.Command, _ []string) error {
	// Validate locally before any call; the server would reject these anyway.
	if !govalidator.IsEmail(registerEmail) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%q is not a valid email address", registerEmail))
	}
	if len(registerPassword) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.Users.Register(ctx, api.RegisterInput{
		Username: registerUsername,
		Email:    registerEmail,
		Password: registerPassword,
	})
	if err != nil {
		return err
	}
	successf("account created, signed in as %s", sess.User.Username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Users.Logout(ctx); err != nil {
		return err
	}
	successf("signed out")
	return nil
}
