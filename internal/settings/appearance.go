package settings

import "strings"

// UI modes and densities as the client presents them. The backend stores
// the uppercase variants.
const (
	ModeLight  = "light"
	ModeDark   = "dark"
	ModeSystem = "system"

	DensityComfortable = "comfortable"
	DensityCompact     = "compact"
)

// ModeToUI maps a server appearance mode (LIGHT, DARK, SYSTEM) to its
// client form. Unknown or empty values default to system.
func ModeToUI(mode string) string {
	switch strings.ToLower(mode) {
	case ModeLight:
		return ModeLight
	case ModeDark:
		return ModeDark
	default:
		return ModeSystem
	}
}

// ModeToServer maps a client appearance mode to the server's form.
func ModeToServer(mode string) string {
	return strings.ToUpper(ModeToUI(mode))
}

// DensityToUI maps a server density (COMFORTABLE, COMPACT) to its client
// form. Anything but compact is comfortable.
func DensityToUI(density string) string {
	if strings.EqualFold(density, DensityCompact) {
		return DensityCompact
	}
	return DensityComfortable
}

// DensityToServer maps a client density to the server's form.
func DensityToServer(density string) string {
	return strings.ToUpper(DensityToUI(density))
}
