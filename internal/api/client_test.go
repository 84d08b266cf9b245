package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warunghq/warungctl/internal/session"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store := session.NewStore()
	store.SetUserToken("user-token")
	return store
}

func newTenantStore(t *testing.T) *session.Store {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, store.SetTenant(session.TenantGrant{TenantID: "acme", Token: "tenant-token"}))
	return store
}

func TestDoSelectsToken(t *testing.T) {
	tests := []struct {
		name         string
		store        func(*testing.T) *session.Store
		tenantScoped bool
		wantAuth     string
		wantTenantID string
	}{
		{
			name:         "unscoped uses user token",
			store:        newTenantStore,
			tenantScoped: false,
			wantAuth:     "Bearer user-token",
		},
		{
			name:         "tenant scoped uses tenant token and header",
			store:        newTenantStore,
			tenantScoped: true,
			wantAuth:     "Bearer tenant-token",
			wantTenantID: "acme",
		},
		{
			name:         "tenant scoped falls back to user token",
			store:        newTestStore,
			tenantScoped: true,
			wantAuth:     "Bearer user-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotTenant, gotRequestID string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotTenant = r.Header.Get("X-Tenant-Id")
				gotRequestID = r.Header.Get("X-Request-Id")
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, tt.store(t))
			err := client.Do(context.Background(), Request{
				Method:       http.MethodGet,
				Path:         "/ping",
				TenantScoped: tt.tenantScoped,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantAuth, gotAuth)
			assert.Equal(t, tt.wantTenantID, gotTenant)
			assert.NotEmpty(t, gotRequestID, "every request carries a request id")
		})
	}
}

func TestDoWithoutToken(t *testing.T) {
	client := NewClient("http://unreachable.invalid", session.NewStore())

	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping"})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnauthenticated))

	err = client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/ping", TenantScoped: true})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnauthenticated))
}

func TestTenantScoped401ClearsOnlyTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newTenantStore(t)
	store.SetUser(&session.User{ID: "u1", Email: "user@example.com"})
	client := NewClient(srv.URL, store)

	err := client.Do(context.Background(), Request{
		Method:       http.MethodGet,
		Path:         "/tenants/acme/capabilities",
		TenantScoped: true,
	})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeTenantSessionExpired))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "tenant session expired", apiErr.Message)

	state := store.Snapshot()
	assert.True(t, state.HasUserToken(), "user token survives a tenant-scoped 401")
	assert.NotNil(t, state.User)
	assert.False(t, state.HasTenant())
}

func TestUnscoped401ResetsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := newTenantStore(t)
	client := NewClient(srv.URL, store)

	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/auth/me"})
	require.Error(t, err)
	assert.True(t, IsCode(err, CodeUnauthenticated))

	assert.Equal(t, session.State{}, store.Snapshot())
}

func TestErrorNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "error field preferred",
			status:      422,
			body:        `{"error":"name is required","message":"ignored"}`,
			wantCode:    CodeValidation,
			wantMessage: "name is required",
		},
		{
			name:        "message field fallback",
			status:      403,
			body:        `{"message":"not allowed"}`,
			wantCode:    CodeForbidden,
			wantMessage: "not allowed",
		},
		{
			name:        "non-json body",
			status:      500,
			body:        "internal error",
			wantCode:    CodeRequestFailed,
			wantMessage: "HTTP 500",
		},
		{
			name:        "empty body",
			status:      404,
			body:        "",
			wantCode:    CodeRequestFailed,
			wantMessage: "HTTP 404",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, newTestStore(t))
			err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: map[string]string{}})
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestRetriesReadsOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))

	var out map[string]bool
	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x", Out: &out})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, out["ok"])
}

func TestNeverRetriesMutations(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	err := client.Do(context.Background(), Request{Method: http.MethodPost, Path: "/x", Body: map[string]string{}})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNeverRetries4xxReads(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNoContentLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	out := map[string]string{"existing": "value"}
	err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x", Out: &out})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"existing": "value"}, out)
}

func TestDefaultMethodInference(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))

	require.NoError(t, client.Do(context.Background(), Request{Path: "/x"}))
	assert.Equal(t, http.MethodGet, gotMethod)

	require.NoError(t, client.Do(context.Background(), Request{Path: "/x", Body: map[string]string{}}))
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestQueryEncoding(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	err := client.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/x",
		Query:  map[string][]string{"page": {"2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "page=2", gotQuery)
}
