// Package tenant determines which tenant context an authenticated user
// operates in.
//
// Resolution checks hints in priority order (subdomain, path segment, query
// parameter, last-used tenant), exchanging the first id the backend accepts
// for a tenant-scoped token. When no hint succeeds, the user's memberships
// decide: exactly one is assumed automatically, none is terminal, and more
// than one requires a manual pick.
package tenant

import (
	"context"
	"net/url"
	"sync"

	"github.com/warunghq/warungctl/internal/api"
	"github.com/warunghq/warungctl/internal/log"
	"github.com/warunghq/warungctl/internal/session"
)

// Status is the resolution state: idle -> resolving -> {ready|failed|skipped}.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusResolving Status = "resolving"
	StatusReady     Status = "ready"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Failure reasons surfaced alongside StatusFailed.
const (
	ReasonMembershipFetch = "failed to load tenant list"
	ReasonNoTenant        = "user has no tenant"
	ReasonChoiceRequired  = "must choose a tenant"
	ReasonAssumeFailed    = "failed to assume tenant"
)

// Service is the backend surface the resolver needs.
type Service interface {
	MyTenants(ctx context.Context) ([]api.Membership, error)
	AssumeTenant(ctx context.Context, tenantID string) (api.AssumeResult, error)
}

// Resolver runs the tenant resolution flow once per instance.
//
// A latch guarantees at most one resolution attempt: later Resolve calls
// return the outcome of the first, even if the session state has changed in
// between. Hint attempts run strictly sequentially, so the first hint the
// backend accepts wins deterministically.
type Resolver struct {
	svc      Service
	session  *session.Store
	lastUsed *LastUsed
	location *url.URL
	logger   *log.Logger

	mu          sync.Mutex
	tried       bool
	status      Status
	reason      string
	lastErr     error
	memberships []api.Membership
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLocation sets the dashboard URL that subdomain, path, and query hints
// are derived from.
func WithLocation(u *url.URL) ResolverOption {
	return func(r *Resolver) { r.location = u }
}

// WithLastUsed sets the store for the last-used tenant id.
func WithLastUsed(lu *LastUsed) ResolverOption {
	return func(r *Resolver) { r.lastUsed = lu }
}

// WithLogger sets the resolver's logger.
func WithLogger(logger *log.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = logger }
}

// NewResolver creates a Resolver over the given backend service and session
// store.
func NewResolver(svc Service, store *session.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		svc:     svc,
		session: store,
		logger:  log.DefaultLogger(),
		status:  StatusIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status returns the current resolution status.
func (r *Resolver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Reason returns the failure reason, or "" outside StatusFailed.
func (r *Resolver) Reason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// Memberships returns the membership list when resolution failed with
// ReasonChoiceRequired, so the caller can present a manual pick.
func (r *Resolver) Memberships() []api.Membership {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Membership(nil), r.memberships...)
}

// Resolve runs the resolution flow. It is a no-op after the first call; the
// stored outcome is returned instead.
func (r *Resolver) Resolve(ctx context.Context) (Status, error) {
	r.mu.Lock()
	if r.tried {
		status, err := r.status, r.lastErr
		r.mu.Unlock()
		return status, err
	}
	r.tried = true

	state := r.session.Snapshot()
	if !state.HasUserToken() || state.TenantToken != "" {
		r.status = StatusSkipped
		r.mu.Unlock()
		return StatusSkipped, nil
	}
	r.status = StatusResolving
	r.mu.Unlock()

	status, err := r.resolve(ctx)

	r.mu.Lock()
	r.status = status
	r.lastErr = err
	if resErr, ok := err.(*ResolutionError); ok {
		r.reason = resErr.Message
		r.memberships = resErr.Memberships
	}
	r.mu.Unlock()
	return status, err
}

func (r *Resolver) resolve(ctx context.Context) (Status, error) {
	hints := HintsFromURL(r.location, r.lastUsed.Get())
	for _, h := range hints {
		if err := r.Assume(ctx, h.ID); err != nil {
			r.logger.WithError(err).Debug("tenant hint rejected", "tenant_id", h.ID, "source", string(h.Source))
			continue
		}
		r.logger.Info("tenant resolved from hint", "tenant_id", h.ID, "source", string(h.Source))
		return StatusReady, nil
	}

	memberships, err := r.svc.MyTenants(ctx)
	if err != nil {
		return StatusFailed, &ResolutionError{
			Code:    ErrMembershipFetch,
			Message: ReasonMembershipFetch,
			Cause:   err,
		}
	}

	switch len(memberships) {
	case 0:
		return StatusFailed, &ResolutionError{Code: ErrNoTenant, Message: ReasonNoTenant}
	case 1:
		only := memberships[0].TenantID
		if err := r.Assume(ctx, only); err != nil {
			return StatusFailed, err
		}
		r.logger.Info("tenant resolved from single membership", "tenant_id", only)
		return StatusReady, nil
	default:
		return StatusFailed, &ResolutionError{
			Code:        ErrChoiceRequired,
			Message:     ReasonChoiceRequired,
			Memberships: memberships,
		}
	}
}

// Assume exchanges tenantID for a tenant-scoped token, installs the grant
// in the session, and remembers the tenant as last used. Failures leave
// existing session state untouched.
func (r *Resolver) Assume(ctx context.Context, tenantID string) error {
	result, err := r.svc.AssumeTenant(ctx, tenantID)
	if err != nil {
		return &ResolutionError{
			Code:    ErrAssumeFailed,
			Message: ReasonAssumeFailed,
			Cause:   err,
		}
	}

	if err := r.session.SetTenant(session.TenantGrant{
		TenantID:    tenantID,
		Token:       result.Token,
		Permissions: result.Permissions,
	}); err != nil {
		return &ResolutionError{Code: ErrAssumeFailed, Message: ReasonAssumeFailed, Cause: err}
	}

	if err := r.lastUsed.Set(tenantID); err != nil {
		// Losing the hint only costs a future prompt.
		r.logger.WithError(err).Warn("failed to persist last used tenant", "tenant_id", tenantID)
	}
	return nil
}
