package tenant

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantFromSubdomain(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"acme.warung.app", "acme"},
		{"acme.staging.warung.app", "acme"},
		{"www.warung.app", ""},
		{"warung.app", "warung"},
		{"localhost", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			assert.Equal(t, tt.want, TenantFromSubdomain(tt.hostname))
		})
	}
}

func TestTenantFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/t/acme", "acme"},
		{"/t/acme/orders", "acme"},
		{"/t/", ""},
		{"/tenants/acme", ""},
		{"/orders/t/acme", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, TenantFromPath(tt.path))
		})
	}
}

func TestHintsFromURL(t *testing.T) {
	u, err := url.Parse("https://acme.warung.app/t/globex?tenant=initech")
	require.NoError(t, err)

	hints := HintsFromURL(u, "hooli")

	assert.Equal(t, []Hint{
		{ID: "acme", Source: HintSubdomain},
		{ID: "globex", Source: HintPath},
		{ID: "initech", Source: HintQuery},
		{ID: "hooli", Source: HintLastUsed},
	}, hints)
}

func TestHintsFromURLSkipsAbsentSources(t *testing.T) {
	u, err := url.Parse("https://www.warung.app/orders")
	require.NoError(t, err)

	assert.Equal(t, []Hint{{ID: "remembered", Source: HintLastUsed}}, HintsFromURL(u, "remembered"))
	assert.Empty(t, HintsFromURL(nil, ""))
}
