package api

import (
	"context"
	"net/http"
)

// LoginResult is the outcome of a successful login: the user-level token
// and the user identity (defaulted to the login email when the backend
// omits it).
type LoginResult struct {
	Token string
	User  User
}

// User mirrors the backend's identity shape.
type User struct {
	ID    string `json:"userId"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Membership is one tenant the user belongs to. Fetched from the backend
// and never persisted beyond the resolution flow.
type Membership struct {
	TenantID    string   `json:"tenantId"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// AssumeResult is a tenant-scoped token exchanged for a tenant id, with the
// permission set when the backend returns one.
type AssumeResult struct {
	Token       string   `json:"access_token"`
	Permissions []string `json:"permissions,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
	User        *User  `json:"user"`
}

type assumeTenantRequest struct {
	TenantID string `json:"tenantId"`
}

// Login authenticates with email and password. Tenant-unscoped; requires no
// existing token.
//
// The backend returns the token as access_token or, in older deployments,
// token. A missing user object defaults to the login email.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var resp loginResponse

	// Login is the one call made without a bearer token, so it bypasses Do.
	httpReq := Request{
		Method:       http.MethodPost,
		Path:         "/auth/login",
		Body:         loginRequest{Email: email, Password: password},
		TenantScoped: false,
		Out:          &resp,
	}
	if err := c.doUnauthenticated(ctx, httpReq); err != nil {
		return LoginResult{}, err
	}

	token := resp.AccessToken
	if token == "" {
		token = resp.Token
	}
	if token == "" {
		return LoginResult{}, &Error{Status: 0, Code: CodeRequestFailed, Message: "no token received from server"}
	}

	user := User{Email: email}
	if resp.User != nil {
		user = *resp.User
		if user.Email == "" {
			user.Email = email
		}
	}
	return LoginResult{Token: token, User: user}, nil
}

// Me returns the identity behind the user-level token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         "/auth/me",
		TenantScoped: false,
		Out:          &user,
	})
	return user, err
}

// MyTenants lists the user's tenant memberships. Tenant-unscoped.
func (c *Client) MyTenants(ctx context.Context) ([]Membership, error) {
	var memberships []Membership
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         "/auth/me/tenants",
		TenantScoped: false,
		Out:          &memberships,
	})
	return memberships, err
}

// AssumeTenant exchanges a tenant id for a tenant-scoped token. A single
// round trip with no client-side retries; failures propagate verbatim.
func (c *Client) AssumeTenant(ctx context.Context, tenantID string) (AssumeResult, error) {
	var result AssumeResult
	err := c.Do(ctx, Request{
		Method:       http.MethodPost,
		Path:         "/auth/assume-tenant-by-id",
		Body:         assumeTenantRequest{TenantID: tenantID},
		TenantScoped: false,
		Out:          &result,
	})
	return result, err
}

// doUnauthenticated performs a call without requiring a stored token.
func (c *Client) doUnauthenticated(ctx context.Context, req Request) error {
	httpReq, err := c.buildRequest(ctx, req, "")
	if err != nil {
		return err
	}
	httpReq.Header.Del("Authorization")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.normalizeUnauthenticatedError(resp.StatusCode, body)
	}
	if req.Out == nil || len(body) == 0 {
		return nil
	}
	return decodeJSON(body, req.Out)
}
