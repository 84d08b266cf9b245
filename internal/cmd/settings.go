package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/warunghq/warungctl/internal/settings"
	"github.com/warunghq/warungctl/internal/theme"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and patch tenant settings",
	Long: `Read and patch the active tenant's settings.

Settings are organized in sections (` + strings.Join(settings.Sections(), ", ") + `).
Each section is patched independently; sibling sections are untouched.

Examples:
  warungctl settings show
  warungctl settings show --section appearance
  warungctl settings set appearance primaryColor=#112233 mode=dark
  warungctl settings set localization language=id`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// settingsShowCmd prints the settings record
var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the active tenant's settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		section, _ := cmd.Flags().GetString("section")
		if section != "" && !settings.ValidSection(section) {
			return fmt.Errorf("unknown section %q (valid: %s)", section, strings.Join(settings.Sections(), ", "))
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		tenantID, err := app.requireTenant()
		if err != nil {
			return err
		}

		var vars theme.Vars
		cache := app.settingsCache(theme.ApplierFunc(func(v theme.Vars) { vars = v }))

		record, err := cache.Get(cmd.Context(), tenantID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		if section != "" {
			return printYAML(record.Section(section))
		}
		if err := printYAML(record); err != nil {
			return err
		}

		styles := theme.NewStyles(vars)
		fmt.Println()
		fmt.Printf("Theme: %s %s\n",
			styles.Brand.Render("primary "+vars.Primary),
			styles.Accent.Render("accent "+vars.Accent))
		return nil
	},
}

// settingsSetCmd patches one section
var settingsSetCmd = &cobra.Command{
	Use:   "set <section> <key=value>...",
	Short: "Patch fields in one settings section",
	Long: `Patch fields in one settings section.

Values are parsed as JSON when possible (true, 42, ["a","b"]) and fall
back to plain strings. For the appearance section, mode and density
values are normalized to the backend's form (dark -> DARK).

The patch is applied to the local cache immediately and rolled back if
the backend rejects it.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		section := args[0]
		if !settings.ValidSection(section) {
			return fmt.Errorf("unknown section %q (valid: %s)", section, strings.Join(settings.Sections(), ", "))
		}

		patch, err := parsePatch(section, args[1:])
		if err != nil {
			return err
		}

		app, err := newApp()
		if err != nil {
			return err
		}
		tenantID, err := app.requireTenant()
		if err != nil {
			return err
		}

		cache := app.settingsCache(theme.Nop)
		record, err := cache.UpdateSection(cmd.Context(), tenantID, section, patch)
		if err != nil {
			return fmt.Errorf("update %s settings: %w", section, err)
		}

		fmt.Printf("Updated %s.\n", section)
		return printYAML(record.Section(section))
	},
}

// parsePatch turns key=value arguments into a settings patch. Values parse
// as JSON with a plain-string fallback.
func parsePatch(section string, pairs []string) (settings.Patch, error) {
	patch := settings.Patch{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}

		if section == settings.SectionAppearance {
			if s, isString := value.(string); isString {
				switch key {
				case "mode":
					value = settings.ModeToServer(s)
				case "density":
					value = settings.DensityToServer(s)
				}
			}
		}
		patch[key] = value
	}
	return patch, nil
}

func printYAML(v any) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func init() {
	settingsShowCmd.Flags().String("section", "", "show only one section")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
