package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var brandCmd = &cobra.Command{
	Use:   "brand",
	Short: "Manage tenant branding assets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// brandUploadLogoCmd uploads a logo file
var brandUploadLogoCmd = &cobra.Command{
	Use:   "upload-logo <file>",
	Short: "Upload a brand logo for the active tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		tenantID, err := app.requireTenant()
		if err != nil {
			return err
		}

		file, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open logo file: %w", err)
		}
		defer file.Close()

		result, err := app.client.UploadLogo(cmd.Context(), tenantID, filepath.Base(args[0]), file)
		if err != nil {
			return fmt.Errorf("upload logo: %w", err)
		}

		if result.LogoURL != "" {
			fmt.Printf("Logo uploaded: %s\n", result.LogoURL)
		} else {
			fmt.Println("Logo uploaded.")
		}
		return nil
	},
}

func init() {
	brandCmd.AddCommand(brandUploadLogoCmd)
	rootCmd.AddCommand(brandCmd)
}
