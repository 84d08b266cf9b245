package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/warunghq/warungctl/internal/settings"
)

// Capabilities is the user's role and permission set within one tenant.
type Capabilities struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// LogoResult is the outcome of a brand logo upload.
type LogoResult struct {
	LogoURL string `json:"logoUrl"`
}

// GetCapabilities fetches the permission set for a tenant. Tenant-scoped.
func (c *Client) GetCapabilities(ctx context.Context, tenantID string) (Capabilities, error) {
	var caps Capabilities
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/tenants/%s/capabilities", tenantID),
		TenantScoped: true,
		TenantID:     tenantID,
		Out:          &caps,
	})
	return caps, err
}

// GetSettings fetches the full settings record for a tenant. Tenant-scoped.
func (c *Client) GetSettings(ctx context.Context, tenantID string) (settings.Record, error) {
	var record settings.Record
	err := c.Do(ctx, Request{
		Method:       http.MethodGet,
		Path:         fmt.Sprintf("/tenants/%s/settings", tenantID),
		TenantScoped: true,
		TenantID:     tenantID,
		Out:          &record,
	})
	return record, err
}

// UpdateSettingsSection patches one settings section and returns the
// authoritative settings record from the server. Tenant-scoped, never
// retried.
func (c *Client) UpdateSettingsSection(ctx context.Context, tenantID, section string, patch settings.Patch) (settings.Record, error) {
	if !settings.ValidSection(section) {
		return nil, fmt.Errorf("unknown settings section %q", section)
	}

	var record settings.Record
	err := c.Do(ctx, Request{
		Method:       http.MethodPatch,
		Path:         fmt.Sprintf("/tenants/%s/settings/%s", tenantID, section),
		Body:         patch,
		TenantScoped: true,
		TenantID:     tenantID,
		Out:          &record,
	})
	return record, err
}

// UploadLogo uploads a brand logo as a multipart file. The multipart body
// is passed through with the writer's own content type; nothing overrides
// it.
func (c *Client) UploadLogo(ctx context.Context, tenantID, filename string, file io.Reader) (LogoResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	var result LogoResult
	err := c.Do(ctx, Request{
		Method:       http.MethodPost,
		Path:         fmt.Sprintf("/tenants/%s/brand/logo", tenantID),
		Multipart:    &Multipart{ContentType: mw.FormDataContentType(), Body: pr},
		TenantScoped: true,
		TenantID:     tenantID,
		Out:          &result,
	})
	if err != nil {
		// The body may never have been consumed (e.g. no token); unblock
		// the writer goroutine.
		pr.CloseWithError(err)
		return LogoResult{}, err
	}
	return result, nil
}
