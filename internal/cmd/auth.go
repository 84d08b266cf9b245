package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/warunghq/warungctl/internal/session"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage authentication credentials",
	Long: `Manage authentication credentials for the back-office platform.

Credentials are stored in the state directory (default ~/.warung).

Examples:
  warungctl auth login --email user@example.com --password mypass
  warungctl auth status
  warungctl auth tenants
  warungctl auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// authLoginCmd handles user login
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to the platform",
	Long: `Login to the back-office platform with your email and password.

When --email or --password is omitted, an interactive prompt asks for it.
The user-level token is saved locally; tenant resolution is a separate
step (see 'warungctl tenant resolve').`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		if email == "" || password == "" {
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&password),
			))
			if err := form.Run(); err != nil {
				return fmt.Errorf("read credentials: %w", err)
			}
		}
		if email == "" {
			return fmt.Errorf("email is required")
		}
		if password == "" {
			return fmt.Errorf("password is required")
		}

		app, err := newApp()
		if err != nil {
			return err
		}

		result, err := app.client.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}

		app.session.SetUserToken(result.Token)
		app.session.SetUser(&session.User{ID: result.User.ID, Email: result.User.Email})

		fmt.Printf("Logged in as %s\n", result.User.Email)
		return nil
	},
}

// authStatusCmd shows current auth status
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		state := app.session.Snapshot()
		if !state.HasUserToken() {
			fmt.Println("Not logged in.")
			fmt.Println("Use 'warungctl auth login' to authenticate.")
			return nil
		}

		user, err := app.client.Me(cmd.Context())
		if err != nil {
			fmt.Println("Token may be expired or invalid.")
			fmt.Println("Use 'warungctl auth login' to re-authenticate.")
			return nil
		}

		fmt.Println("Logged in")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Email:   %s\n", user.Email)
		if exp := tokenExpiry(state.UserToken); exp != "" {
			fmt.Printf("Token expires: %s\n", exp)
		}
		if state.HasTenant() {
			fmt.Printf("Active tenant: %s (%d permissions)\n", state.TenantID, len(state.Permissions))
		} else {
			fmt.Println("No active tenant.")
		}
		return nil
	},
}

// authLogoutCmd clears the whole session
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Logout and clear the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		app.session.Reset()
		fmt.Println("Logged out.")
		return nil
	},
}

// authTenantsCmd lists tenant memberships
var authTenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "List your tenant memberships",
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
			fmt.Println("You belong to no tenant.")
			return nil
		}

		active := app.session.TenantID()
		for _, m := range memberships {
			marker := " "
			if m.TenantID == active {
				marker = "*"
			}
			if m.Role != "" {
				fmt.Printf("%s %s (%s)\n", marker, m.TenantID, m.Role)
			} else {
				fmt.Printf("%s %s\n", marker, m.TenantID)
			}
		}
		return nil
	},
}

// tokenExpiry extracts the expiry of a JWT without verifying it. Opaque
// tokens yield "".
func tokenExpiry(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ""
	}
	return exp.Time.Format("2006-01-02 15:04:05 MST")
}

func init() {
	authLoginCmd.Flags().String("email", "", "account email")
	authLoginCmd.Flags().String("password", "", "account password")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authTenantsCmd)
	rootCmd.AddCommand(authCmd)
}
