// Package commands holds the CLI surface. Every command builds the client
// core from the environment, drives one or two store operations, and renders
// the cached result; the commands never touch the wire client directly.
package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"inkwell/internal/app"
	"inkwell/internal/platform/config"
	"inkwell/internal/platform/logger"
)

var (
	version string
	commit  string
	date    string

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell - command-line client for the Inkwell blog platform",
	Long: `Inkwell is a command-line client for the Inkwell blog platform.

It keeps a signed-in session on disk (or in Redis when INKWELL_REDIS_URL is
set), so one login carries across invocations. Point it at a server with
INKWELL_API_URL.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called by main.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), color.RedString("error: %v", err))
	}
	return err
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests and state changes")
}

// newApp assembles the client core from the environment.
func newApp(ctx context.Context) (*app.App, error) {
	opts := []app.Option{}
	if verbose {
		opts = append(opts, app.WithLogger(logger.Verbose()))
	}
	return app.New(ctx, config.FromEnv(), opts...)
}

func successf(format string, args ...any) {
	fmt.Println(color.GreenString(format, args...))
}
