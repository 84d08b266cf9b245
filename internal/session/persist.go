package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// schemaVersion is the on-disk format version. Bump it when the persisted
// shape changes; Load migrates or rejects older versions.
const schemaVersion = 1

// Persister saves and restores session state at defined lifecycle points:
// Load at startup, Save after each mutation.
type Persister interface {
	// Load returns the persisted state. ok is false when nothing has been
	// persisted yet, which is not an error.
	Load() (state State, ok bool, err error)

	// Save replaces the persisted state.
	Save(state State) error
}

// fileEnvelope wraps the persisted state with a schema version so future
// format changes can migrate forward.
type fileEnvelope struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// FileStore persists session state as JSON in a single file.
//
// Only durable fields are written: tokens, tenant id, user identity, and
// permissions. The file is created with mode 0600 since it holds bearer
// tokens.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path. Parent directories are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store writes to.
func (f *FileStore) Path() string { return f.path }

// Load reads the persisted state from disk.
func (f *FileStore) Load() (State, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("read session file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return State{}, false, fmt.Errorf("parse session file: %w", err)
	}

	switch env.Version {
	case schemaVersion:
		return env.State, true, nil
	default:
		return State{}, false, fmt.Errorf("unsupported session schema version %d", env.Version)
	}
}

// Save writes the state to disk, replacing any previous content.
func (f *FileStore) Save(state State) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(fileEnvelope{Version: schemaVersion, State: state}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}
