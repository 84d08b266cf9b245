// Package capabilities ensures the active tenant's permission set is loaded
// before protected operations run.
package capabilities

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warunghq/warungctl/internal/api"
	"github.com/warunghq/warungctl/internal/log"
	"github.com/warunghq/warungctl/internal/session"
)

// ErrFetchFailed is the code for a failed capabilities fetch. The tenant
// identity is kept; only a manual retry refetches.
const ErrFetchFailed = "CAPABILITIES_FETCH_FAILED"

// GateError is a capabilities fetch failure.
type GateError struct {
	TenantID string
	Cause    error
}

// Error implements the error interface.
func (e *GateError) Error() string {
	return fmt.Sprintf("%s: load permissions for tenant %s: %v", ErrFetchFailed, e.TenantID, e.Cause)
}

// Unwrap returns the underlying error.
func (e *GateError) Unwrap() error { return e.Cause }

// ErrorCode returns the error code for structured logging.
func (e *GateError) ErrorCode() string { return ErrFetchFailed }

// Status is the gate state for the active tenant.
type Status string

const (
	// StatusSkipped means the gate is disabled: no full tenant session is
	// present, so content passes through ungated and no fetch is made.
	StatusSkipped Status = "skipped"
	// StatusReady means permissions for the active tenant are loaded.
	StatusReady Status = "ready"
	// StatusFailed means the fetch failed; protected content stays blocked
	// until a manual retry succeeds.
	StatusFailed Status = "failed"
)

// defaultFreshFor matches the dashboard's capabilities cache window.
const defaultFreshFor = 5 * time.Minute

// Service is the backend surface the gate needs.
type Service interface {
	GetCapabilities(ctx context.Context, tenantID string) (api.Capabilities, error)
}

// Gate fetches tenant capabilities and writes the permission set into the
// session store. When the active tenant changes, stale permissions are
// cleared before the new fetch resolves, so no window exists where the old
// tenant's permissions grant access under the new one.
type Gate struct {
	svc      Service
	session  *session.Store
	logger   *log.Logger
	freshFor time.Duration

	mu         sync.Mutex
	fetchedFor string
	fetchedAt  time.Time
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithFreshFor overrides how long a fetched permission set is considered
// fresh for the same tenant.
func WithFreshFor(d time.Duration) GateOption {
	return func(g *Gate) { g.freshFor = d }
}

// WithLogger sets the gate's logger.
func WithLogger(logger *log.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

// NewGate creates a Gate over the given backend service and session store.
func NewGate(svc Service, store *session.Store, opts ...GateOption) *Gate {
	g := &Gate{
		svc:      svc,
		session:  store,
		logger:   log.DefaultLogger(),
		freshFor: defaultFreshFor,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ensure loads the active tenant's permissions if needed.
//
// The gate is enabled only when the user token, tenant token, and tenant id
// are all present; otherwise it reports StatusSkipped without any network
// call. On failure the tenant identity is untouched and the same call can
// be retried manually via Retry.
func (g *Gate) Ensure(ctx context.Context) (Status, error) {
	return g.ensure(ctx, false)
}

// Retry forces a refetch regardless of freshness. This is the manual retry
// affordance; the gate never retries on its own.
func (g *Gate) Retry(ctx context.Context) (Status, error) {
	return g.ensure(ctx, true)
}

func (g *Gate) ensure(ctx context.Context, force bool) (Status, error) {
	state := g.session.Snapshot()
	if !state.HasUserToken() || !state.HasTenant() {
		return StatusSkipped, nil
	}
	tenantID := state.TenantID

	g.mu.Lock()
	if g.fetchedFor == tenantID && !force && time.Since(g.fetchedAt) < g.freshFor {
		g.mu.Unlock()
		return StatusReady, nil
	}
	if g.fetchedFor != tenantID {
		// Tenant changed: drop the previous tenant's permissions before the
		// new fetch resolves.
		g.session.SetPermissions(nil)
		g.fetchedFor = ""
	}
	g.mu.Unlock()

	caps, err := g.svc.GetCapabilities(ctx, tenantID)
	if err != nil {
		g.logger.WithError(err).Warn("capabilities fetch failed", "tenant_id", tenantID)
		return StatusFailed, &GateError{TenantID: tenantID, Cause: err}
	}

	g.session.SetPermissions(caps.Permissions)

	g.mu.Lock()
	g.fetchedFor = tenantID
	g.fetchedAt = time.Now()
	g.mu.Unlock()

	g.logger.Debug("capabilities loaded", "tenant_id", tenantID, "role", caps.Role, "permissions", len(caps.Permissions))
	return StatusReady, nil
}
