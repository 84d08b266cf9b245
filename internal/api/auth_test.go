package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warunghq/warungctl/internal/session"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		status    int
		wantToken string
		wantUser  User
		wantErr   bool
		wantCode  string
	}{
		{
			name:      "access_token with user",
			response:  `{"access_token":"tok-1","user":{"userId":"u1","email":"user@example.com"}}`,
			status:    200,
			wantToken: "tok-1",
			wantUser:  User{ID: "u1", Email: "user@example.com"},
		},
		{
			name:      "legacy token field",
			response:  `{"token":"tok-2"}`,
			status:    200,
			wantToken: "tok-2",
			wantUser:  User{Email: "user@example.com"},
		},
		{
			name:      "access_token preferred over token",
			response:  `{"access_token":"tok-1","token":"tok-2"}`,
			status:    200,
			wantToken: "tok-1",
			wantUser:  User{Email: "user@example.com"},
		},
		{
			name:     "no token is an error",
			response: `{"user":{"userId":"u1"}}`,
			status:   200,
			wantErr:  true,
			wantCode: CodeRequestFailed,
		},
		{
			name:     "bad credentials",
			response: `{"error":"invalid credentials"}`,
			status:   401,
			wantErr:  true,
			wantCode: CodeUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			var gotBody map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			// Login must work on an empty session.
			client := NewClient(srv.URL, session.NewStore())
			result, err := client.Login(context.Background(), "user@example.com", "hunter2")

			assert.Empty(t, gotAuth, "login carries no bearer token")
			assert.Equal(t, "user@example.com", gotBody["email"])
			assert.Equal(t, "hunter2", gotBody["password"])

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsCode(err, tt.wantCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, result.Token)
			assert.Equal(t, tt.wantUser, result.User)
		})
	}
}

func TestLoginFailureDoesNotTouchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := session.NewStore()
	store.SetUserToken("existing-token")
	client := NewClient(srv.URL, store)

	_, err := client.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	assert.Equal(t, "existing-token", store.UserToken(), "a failed login leaves the stored session alone")
}

func TestMyTenants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/me/tenants", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"tenantId":"acme","role":"admin"},{"tenantId":"globex","role":"staff"}]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	memberships, err := client.MyTenants(context.Background())
	require.NoError(t, err)

	require.Len(t, memberships, 2)
	assert.Equal(t, Membership{TenantID: "acme", Role: "admin"}, memberships[0])
}

func TestAssumeTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/assume-tenant-by-id", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "acme", body["tenantId"])

		w.Write([]byte(`{"access_token":"tenant-tok","permissions":["orders:read"]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, newTestStore(t))
	result, err := client.AssumeTenant(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, "tenant-tok", result.Token)
	assert.Equal(t, []string{"orders:read"}, result.Permissions)
}
