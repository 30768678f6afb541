package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gobank-cli",
		Short:         "GoBank CLI tool",
		Long:          `A command line interface for interacting with the GoBank API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the GoBank API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("GOBANK_TOKEN"), "Access token (defaults to $GOBANK_TOKEN)")

	rootCmd.AddCommand(
		loginCmd(),
		transactionsCmd(),
		adminCmd(),
		migrateCmd(),
		hashPasswordCmd(),
	)

	return rootCmd
}
