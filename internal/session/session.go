// Package session holds the identity state of the client: the user-level
// bearer token, the tenant-scoped bearer token with its tenant id, the
// resolved permission set, and basic user identity.
//
// The store is explicitly constructed and injected rather than being a
// process-wide global, so tests can run isolated sessions in parallel.
// State changes are observable through subscriber callbacks and are written
// through to the configured persister on every mutation.
package session

import (
	"fmt"
	"sync"
)

// User is the basic identity returned by the backend at login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// State is a point-in-time snapshot of the session.
//
// TenantToken and TenantID are set together or both empty; the setters
// enforce this pairing.
type State struct {
	UserToken   string   `json:"user_token,omitempty"`
	TenantToken string   `json:"tenant_token,omitempty"`
	TenantID    string   `json:"tenant_id,omitempty"`
	User        *User    `json:"user,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// HasUserToken reports whether a user-level token is present.
func (s State) HasUserToken() bool { return s.UserToken != "" }

// HasTenant reports whether a tenant-scoped token and tenant id are present.
func (s State) HasTenant() bool { return s.TenantToken != "" && s.TenantID != "" }

// Has reports whether the permission set contains perm.
func (s State) Has(perm string) bool {
	for _, p := range s.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// HasAny reports whether the permission set contains any of perms.
func (s State) HasAny(perms ...string) bool {
	for _, p := range perms {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s State) clone() State {
	out := s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Permissions != nil {
		out.Permissions = append([]string(nil), s.Permissions...)
	}
	return out
}

// TenantGrant is the result of assuming a tenant: a tenant id, the
// tenant-scoped token exchanged for it, and optionally the permission set
// the backend returned alongside.
type TenantGrant struct {
	TenantID    string
	Token       string
	Permissions []string
}

// ErrInconsistentTenant is returned when a tenant id would be paired with a
// token that was issued for a different tenant.
var ErrInconsistentTenant = fmt.Errorf("session: tenant id changed without a matching tenant token")

// Store is the single source of truth for session state.
//
// All methods are safe for concurrent use. Every successful mutation is
// written through the persister (when one is configured) and then published
// to subscribers.
type Store struct {
	mu        sync.RWMutex
	state     State
	persister Persister
	subs      []func(State)
}

// Option configures a Store.
type Option func(*Store)

// WithPersister makes the store write its state through p on every mutation
// and allows Load to restore previously saved state.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load restores persisted state into the store. Missing persisted state is
// not an error; the store simply stays empty.
func (s *Store) Load() error {
	if s.persister == nil {
		return nil
	}
	state, ok, err := s.persister.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	// A persisted tenant token without its tenant id (or vice versa) is a
	// corrupt pairing; drop the tenant half rather than trusting it.
	if state.TenantToken == "" || state.TenantID == "" {
		state.TenantToken = ""
		state.TenantID = ""
		state.Permissions = nil
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// UserToken returns the current user-level token, or "".
func (s *Store) UserToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.UserToken
}

// TenantToken returns the current tenant-scoped token, or "".
func (s *Store) TenantToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TenantToken
}

// TenantID returns the active tenant id, or "".
func (s *Store) TenantID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TenantID
}

// User returns the stored user identity, or nil.
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// Permissions returns a copy of the current permission set.
func (s *Store) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.Permissions...)
}

// SetUserToken replaces the user-level token. Tenant fields are untouched.
// An empty token clears it.
func (s *Store) SetUserToken(token string) {
	s.mutate(func(st *State) error {
		st.UserToken = token
		return nil
	})
}

// SetUser replaces the stored user identity.
func (s *Store) SetUser(u *User) {
	s.mutate(func(st *State) error {
		if u == nil {
			st.User = nil
			return nil
		}
		cp := *u
		st.User = &cp
		return nil
	})
}

// SetTenant installs a tenant grant.
//
// The grant must carry a token unless the tenant id is unchanged, in which
// case the existing token is retained (a permissions-only update). Pairing a
// new tenant id with the previous tenant's token is rejected with
// ErrInconsistentTenant.
//
// When the grant carries no permissions, the existing permission set is
// retained.
func (s *Store) SetTenant(grant TenantGrant) error {
	return s.mutate(func(st *State) error {
		if grant.TenantID == "" {
			return fmt.Errorf("session: tenant id cannot be empty")
		}
		if grant.Token == "" {
			if st.TenantID != grant.TenantID || st.TenantToken == "" {
				return ErrInconsistentTenant
			}
		} else {
			st.TenantToken = grant.Token
		}
		st.TenantID = grant.TenantID
		if grant.Permissions != nil {
			st.Permissions = append([]string(nil), grant.Permissions...)
		}
		return nil
	})
}

// SetPermissions replaces the permission set wholesale (not merged).
func (s *Store) SetPermissions(perms []string) {
	s.mutate(func(st *State) error {
		if perms == nil {
			st.Permissions = nil
			return nil
		}
		st.Permissions = append([]string(nil), perms...)
		return nil
	})
}

// ClearTenant drops the tenant-scoped half of the session: tenant token,
// tenant id, and permissions. The user-level token and identity survive.
// Used when a tenant session expires.
func (s *Store) ClearTenant() {
	s.mutate(func(st *State) error {
		st.TenantToken = ""
		st.TenantID = ""
		st.Permissions = nil
		return nil
	})
}

// Reset clears the entire session. Calling it twice yields the same empty
// state as calling it once.
func (s *Store) Reset() {
	s.mutate(func(st *State) error {
		*st = State{}
		return nil
	})
}

// Subscribe registers fn to be called with a state snapshot after every
// mutation. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	idx := len(s.subs) - 1
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.subs) {
			s.subs[idx] = nil
		}
	}
}

func (s *Store) mutate(fn func(*State) error) error {
	s.mu.Lock()
	if err := fn(&s.state); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state.clone()
	persister := s.persister
	subs := make([]func(State), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if persister != nil {
		if err := persister.Save(snapshot); err != nil {
			return fmt.Errorf("session: persist state: %w", err)
		}
	}
	for _, fn := range subs {
		if fn != nil {
			fn(snapshot)
		}
	}
	return nil
}
