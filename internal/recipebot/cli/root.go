// Package cli implements the recipebot command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	errorIcon = color.New(color.FgRed).Sprint("✗")

	userStyle  = color.New(color.FgCyan, color.Bold).SprintFunc()
	replyStyle = color.New(color.FgGreen).SprintFunc()
	dim        = color.New(color.Faint).SprintFunc()
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recipebot",
		Short: "A recipe recommendation chat bot",
		Long: `recipebot answers cooking questions, suggests dishes and keeps a
collection of favourite recipes per user.

It can be reached over Telegram, over HTTP/WebSocket, or from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewTelegramCmd())
	rootCmd.AddCommand(NewChatCmd())
	rootCmd.AddCommand(NewTokenCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recipebot %s\n", Version)
		},
	}
}

// Execute runs the CLI.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", errorIcon, err.Error())
		return err
	}
	return nil
}
