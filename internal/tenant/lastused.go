package tenant

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LastUsed remembers the most recently assumed tenant id across runs. It is
// persisted independently of the session so it can seed hint resolution
// even after a logout.
type LastUsed struct {
	path string
}

// NewLastUsed creates a LastUsed store writing to path.
func NewLastUsed(path string) *LastUsed {
	return &LastUsed{path: path}
}

// Get returns the remembered tenant id, or "" when none is stored.
func (l *LastUsed) Get() string {
	if l == nil {
		return ""
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Set remembers id for future resolutions.
func (l *LastUsed) Set(id string) error {
	if l == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(id+"\n"), 0o600); err != nil {
		return fmt.Errorf("write last tenant: %w", err)
	}
	return nil
}
