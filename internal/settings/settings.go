// Package settings caches tenant settings and mutates them with optimistic
// local patching and rollback on failure.
package settings

import (
	"encoding/json"
	"fmt"
)

// Section names the backend accepts for PATCH /tenants/{id}/settings/{section}.
const (
	SectionAppearance    = "appearance"
	SectionLocalization  = "localization"
	SectionDomain        = "domain"
	SectionIntegration   = "integration"
	SectionSSO           = "sso"
	SectionProfile       = "profile"
	SectionNotifications = "notifications"
	SectionAccessibility = "accessibility"
	SectionCompliance    = "compliance"
	SectionAPI           = "api"
)

var validSections = map[string]bool{
	SectionAppearance:    true,
	SectionLocalization:  true,
	SectionDomain:        true,
	SectionIntegration:   true,
	SectionSSO:           true,
	SectionProfile:       true,
	SectionNotifications: true,
	SectionAccessibility: true,
	SectionCompliance:    true,
	SectionAPI:           true,
}

// ValidSection reports whether name is a patchable settings section.
func ValidSection(name string) bool { return validSections[name] }

// Sections returns the patchable section names in a stable order.
func Sections() []string {
	return []string{
		SectionAppearance, SectionLocalization, SectionDomain, SectionIntegration,
		SectionSSO, SectionProfile, SectionNotifications, SectionAccessibility,
		SectionCompliance, SectionAPI,
	}
}

// Record is a tenant settings document: independently patchable sub-objects
// keyed by section name.
type Record map[string]map[string]any

// Section returns the named sub-object, or nil when absent.
func (r Record) Section(name string) map[string]any {
	if r == nil {
		return nil
	}
	return r[name]
}

// Clone returns a deep copy of the record via a JSON round trip, which also
// normalizes value types so clones of equal records compare equal.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	data, err := json.Marshal(r)
	if err != nil {
		// Records come from JSON decoding, so marshalling cannot fail for
		// well-formed values.
		panic(fmt.Sprintf("settings: clone record: %v", err))
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("settings: clone record: %v", err))
	}
	return out
}

// Equal reports whether two records hold the same canonical JSON content.
func (r Record) Equal(other Record) bool {
	a, err := json.Marshal(r)
	if err != nil {
		return false
	}
	b, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return string(a) == string(b)
}
