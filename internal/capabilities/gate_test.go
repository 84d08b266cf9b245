package capabilities

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warunghq/warungctl/internal/api"
	"github.com/warunghq/warungctl/internal/session"
)

// mockService serves scripted capabilities per tenant.
type mockService struct {
	caps  map[string]api.Capabilities
	err   error
	calls int
}

func (m *mockService) GetCapabilities(ctx context.Context, tenantID string) (api.Capabilities, error) {
	m.calls++
	if m.err != nil {
		return api.Capabilities{}, m.err
	}
	c, ok := m.caps[tenantID]
	if !ok {
		return api.Capabilities{}, fmt.Errorf("unknown tenant %s", tenantID)
	}
	return c, nil
}

func tenantStore(t *testing.T, tenantID string) *session.Store {
	t.Helper()
	store := session.NewStore()
	store.SetUserToken("user-token")
	require.NoError(t, store.SetTenant(session.TenantGrant{TenantID: tenantID, Token: "tenant-token"}))
	return store
}

func TestEnsureSkippedWithoutFullSession(t *testing.T) {
	tests := []struct {
		name  string
		store func(*testing.T) *session.Store
	}{
		{
			name:  "empty session",
			store: func(t *testing.T) *session.Store { return session.NewStore() },
		},
		{
			name: "user token only",
			store: func(t *testing.T) *session.Store {
				s := session.NewStore()
				s.SetUserToken("user-token")
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			gate := NewGate(svc, tt.store(t))

			status, err := gate.Ensure(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StatusSkipped, status)
			assert.Zero(t, svc.calls, "skipped gate makes no network call")
		})
	}
}

func TestEnsureLoadsPermissions(t *testing.T) {
	svc := &mockService{caps: map[string]api.Capabilities{
		"acme": {Role: "admin", Permissions: []string{"orders:read", "settings:write"}},
	}}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store)

	status, err := gate.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	assert.Equal(t, []string{"orders:read", "settings:write"}, store.Permissions())
}

func TestEnsureUsesFreshness(t *testing.T) {
	svc := &mockService{caps: map[string]api.Capabilities{"acme": {Permissions: []string{"p"}}}}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store, WithFreshFor(time.Hour))

	_, err := gate.Ensure(context.Background())
	require.NoError(t, err)
	_, err = gate.Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, svc.calls, "a fresh permission set is not refetched")
}

func TestEnsureRefetchesWhenStale(t *testing.T) {
	svc := &mockService{caps: map[string]api.Capabilities{"acme": {Permissions: []string{"p"}}}}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store, WithFreshFor(time.Nanosecond))

	_, err := gate.Ensure(context.Background())
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = gate.Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, svc.calls)
}

func TestEnsureFailureKeepsTenantIdentity(t *testing.T) {
	svc := &mockService{err: fmt.Errorf("backend down")}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store)

	status, err := gate.Ensure(context.Background())
	assert.Equal(t, StatusFailed, status)
	require.Error(t, err)

	var gateErr *GateError
	require.ErrorAs(t, err, &gateErr)
	assert.Equal(t, "acme", gateErr.TenantID)
	assert.Equal(t, ErrFetchFailed, gateErr.ErrorCode())

	assert.Equal(t, "acme", store.TenantID(), "tenant identity survives a fetch failure")
}

func TestEnsureDoesNotRetryOnItsOwn(t *testing.T) {
	svc := &mockService{err: fmt.Errorf("backend down")}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store)

	_, _ = gate.Ensure(context.Background())
	assert.Equal(t, 1, svc.calls)
}

func TestRetryForcesRefetch(t *testing.T) {
	svc := &mockService{err: fmt.Errorf("backend down")}
	store := tenantStore(t, "acme")
	gate := NewGate(svc, store, WithFreshFor(time.Hour))

	_, err := gate.Ensure(context.Background())
	require.Error(t, err)

	svc.err = nil
	svc.caps = map[string]api.Capabilities{"acme": {Permissions: []string{"p"}}}

	status, err := gate.Retry(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusReady, status)
	assert.Equal(t, []string{"p"}, store.Permissions())
	assert.Equal(t, 2, svc.calls)
}

func TestTenantChangeClearsPermissionsBeforeFetch(t *testing.T) {
	var permsDuringFetch []string
	store := tenantStore(t, "acme")

	svc := &mockService{caps: map[string]api.Capabilities{
		"acme":   {Permissions: []string{"acme:perm"}},
		"globex": {Permissions: []string{"globex:perm"}},
	}}
	gate := NewGate(capturingService{svc, func() { permsDuringFetch = store.Permissions() }}, store,
		WithFreshFor(time.Hour))

	_, err := gate.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme:perm"}, store.Permissions())

	require.NoError(t, store.SetTenant(session.TenantGrant{TenantID: "globex", Token: "globex-token"}))

	_, err = gate.Ensure(context.Background())
	require.NoError(t, err)

	assert.Empty(t, permsDuringFetch, "old tenant's permissions cleared before the new fetch resolves")
	assert.Equal(t, []string{"globex:perm"}, store.Permissions())
}

// capturingService observes session state at fetch time.
type capturingService struct {
	inner   Service
	onFetch func()
}

func (c capturingService) GetCapabilities(ctx context.Context, tenantID string) (api.Capabilities, error) {
	c.onFetch()
	return c.inner.GetCapabilities(ctx, tenantID)
}
