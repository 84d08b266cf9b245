package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warunghq/warungctl/internal/api"
	"github.com/warunghq/warungctl/internal/tenant"
	"github.com/warunghq/warungctl/internal/tui"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage the active tenant context",
	Long: `Manage the active tenant context.

Protected operations run against exactly one tenant. 'tenant resolve'
picks that tenant automatically from URL hints, the last used tenant,
or your memberships; 'tenant use' and 'tenant pick' set it explicitly.

Examples:
  warungctl tenant resolve
  warungctl tenant resolve --url https://acme.warung.app/t/acme
  warungctl tenant use acme
  warungctl tenant pick`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// tenantResolveCmd runs the automatic resolution flow
var tenantResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve which tenant to operate in",
	Long: `Resolve which tenant to operate in.

Hints are tried in priority order: dashboard URL subdomain, /t/<id>
path segment, ?tenant= query parameter, then the last used tenant. The
first id the backend accepts wins. When no hint works, a single
membership is assumed automatically and multiple memberships open an
interactive picker (unless --no-input is set).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urlOverride, _ := cmd.Flags().GetString("url")
		noInput, _ := cmd.Flags().GetBool("no-input")

		app, err := newApp()
		if err != nil {
			return err
		}

		resolver, err := app.resolver(urlOverride)
		if err != nil {
			return err
		}

		status, err := resolver.Resolve(cmd.Context())
		switch status {
		case tenant.StatusSkipped:
			state := app.session.Snapshot()
			if !state.HasUserToken() {
				fmt.Println("Not logged in; nothing to resolve.")
				return nil
			}
			fmt.Printf("Tenant already active: %s\n", state.TenantID)
			return nil
		case tenant.StatusReady:
			return finishResolve(cmd, app)
		}

		// Failed. A choice-required failure is recoverable interactively;
		// everything else propagates.
		var resErr *tenant.ResolutionError
		if !errors.As(err, &resErr) || resErr.Code != tenant.ErrChoiceRequired {
			return err
		}
		if noInput {
			fmt.Println("Multiple tenants available:")
			for _, m := range resErr.Memberships {
				fmt.Printf("  %s\n", m.TenantID)
			}
			return fmt.Errorf("must choose a tenant; rerun with 'warungctl tenant use <id>'")
		}

		if err := pickAndAssume(cmd, app, resolver, resErr.Memberships); err != nil {
			return err
		}
		return finishResolve(cmd, app)
	},
}

// pickAndAssume loops the interactive picker until an assume succeeds or the
// user cancels. A failed assume re-opens the picker with the error inline.
func pickAndAssume(cmd *cobra.Command, a *app, resolver *tenant.Resolver, memberships []api.Membership) error {
	errMsg := ""
	for {
		result, err := tui.PickTenant(memberships, errMsg)
		if err != nil {
			return err
		}
		if result.TenantID == "" {
			return fmt.Errorf("tenant selection cancelled")
		}
		if err := resolver.Assume(cmd.Context(), result.TenantID); err != nil {
			errMsg = fmt.Sprintf("could not switch to %s, try again", result.TenantID)
			a.logger.WithError(err).Warn("tenant pick failed", "tenant_id", result.TenantID)
			continue
		}
		return nil
	}
}

// finishResolve loads capabilities for the freshly resolved tenant and
// reports the outcome.
func finishResolve(cmd *cobra.Command, a *app) error {
	fmt.Printf("Active tenant: %s\n", a.session.TenantID())

	if _, err := a.gate().Ensure(cmd.Context()); err != nil {
		fmt.Println("Warning: could not load permissions; protected operations may be blocked.")
		fmt.Println("Retry with 'warungctl tenant resolve' or check connectivity.")
		return nil
	}
	fmt.Printf("Loaded %d permissions.\n", len(a.session.Permissions()))
	return nil
}

// tenantUseCmd assumes a tenant by explicit id
var tenantUseCmd = &cobra.Command{
	Use:   "use <tenant-id>",
	Short: "Switch to a tenant by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		resolver, err := app.resolver("")
		if err != nil {
			return err
		}
		if err := resolver.Assume(cmd.Context(), args[0]); err != nil {
			return err
		}
		return finishResolve(cmd, app)
	},
}

// tenantPickCmd always opens the interactive picker
var tenantPickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Choose a tenant interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		memberships, err := app.client.MyTenants(cmd.Context())
		if err != nil {
			return fmt.Errorf("list tenants: %w", err)
		}
		if len(memberships) == 0 {
			return fmt.Errorf("you belong to no tenant")
		}

		resolver, err := app.resolver("")
		if err != nil {
			return err
		}
		if err := pickAndAssume(cmd, app, resolver, memberships); err != nil {
			return err
		}
		return finishResolve(cmd, app)
	},
}

func init() {
	tenantResolveCmd.Flags().String("url", "", "dashboard URL to derive tenant hints from")
	tenantResolveCmd.Flags().Bool("no-input", false, "fail instead of prompting when a choice is required")

	tenantCmd.AddCommand(tenantResolveCmd)
	tenantCmd.AddCommand(tenantUseCmd)
	tenantCmd.AddCommand(tenantPickCmd)
	rootCmd.AddCommand(tenantCmd)
}
