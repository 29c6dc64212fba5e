package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/myrjola/teamcheck/cmd/cli/roster"
	"github.com/myrjola/teamcheck/internal/errors"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "teamcheck-cli",
		Long:          `Command line utilities for Teamcheck, the passive compatibility checker for three-character teams.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddGroup(roster.Group)
	rootCmd.AddCommand(roster.Commands()...)
	return rootCmd
}

func main() {
	// A missing .env file is fine, the environment is used as is.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
