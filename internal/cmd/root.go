// Package cmd implements the warungctl command tree.
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/warunghq/warungctl/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "warungctl",
	Short: "Operations client for the Warung back-office platform",
	Long: `warungctl is the command-line client for the Warung multi-tenant
back-office platform. It logs in, resolves which tenant to operate in,
loads tenant capabilities, and reads and patches tenant settings.

Session state is stored in ~/.warung/session.json.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(),
		"config file")
}
