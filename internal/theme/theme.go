// Package theme derives presentation variables from a tenant's appearance
// settings: the brand and accent colors plus a readable foreground for each.
package theme

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Fallback colors when a tenant has not customized its appearance.
const (
	DefaultPrimary = "#0ea5e9"
	DefaultAccent  = "#f59e0b"
)

// Vars is the resolved set of theme variables.
type Vars struct {
	Primary           string
	Accent            string
	PrimaryForeground string
	AccentForeground  string
}

// Applier receives theme variables whenever they change. The CLI renders
// them with lipgloss; tests record them.
type Applier interface {
	Apply(Vars)
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(Vars)

// Apply implements Applier.
func (f ApplierFunc) Apply(v Vars) { f(v) }

// Nop is an Applier that discards updates.
var Nop Applier = ApplierFunc(func(Vars) {})

var hexColor = regexp.MustCompile(`^#?([a-fA-F\d]{2})([a-fA-F\d]{2})([a-fA-F\d]{2})$`)

// Foreground picks black or white for readable text over the given hex
// color, using the YIQ brightness of the background. Surrounding
// whitespace is ignored; unparseable input yields black.
func Foreground(hex string) string {
	m := hexColor.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return "#000000"
	}
	r, _ := strconv.ParseInt(m[1], 16, 0)
	g, _ := strconv.ParseInt(m[2], 16, 0)
	b, _ := strconv.ParseInt(m[3], 16, 0)

	yiq := (r*299 + g*587 + b*114) / 1000
	if yiq >= 140 {
		return "#000000"
	}
	return "#ffffff"
}

// Derive computes the full variable set from primary and accent colors,
// substituting defaults for empty values.
func Derive(primary, accent string) Vars {
	if primary == "" {
		primary = DefaultPrimary
	}
	if accent == "" {
		accent = DefaultAccent
	}
	return Vars{
		Primary:           primary,
		Accent:            accent,
		PrimaryForeground: Foreground(primary),
		AccentForeground:  Foreground(accent),
	}
}

// Styles holds ready-to-use lipgloss styles for the current theme.
type Styles struct {
	Brand  lipgloss.Style
	Accent lipgloss.Style
}

// NewStyles builds lipgloss styles from theme variables.
func NewStyles(v Vars) Styles {
	return Styles{
		Brand: lipgloss.NewStyle().
			Background(lipgloss.Color(v.Primary)).
			Foreground(lipgloss.Color(v.PrimaryForeground)).
			Padding(0, 1),
		Accent: lipgloss.NewStyle().
			Background(lipgloss.Color(v.Accent)).
			Foreground(lipgloss.Color(v.AccentForeground)).
			Padding(0, 1),
	}
}
