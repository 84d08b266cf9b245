package tenant

import (
	"net/url"
	"regexp"
	"strings"
)

// HintSource identifies where a tenant hint came from. Sources are ordered
// by trust: subdomain > path > query > lastUsed.
type HintSource string

const (
	HintSubdomain HintSource = "subdomain"
	HintPath      HintSource = "path"
	HintQuery     HintSource = "query"
	HintLastUsed  HintSource = "lastUsed"
)

// Hint is a weakly-trusted signal suggesting which tenant the user intends
// to operate in. Hints are only suggestions; the assume-tenant exchange is
// what validates them.
type Hint struct {
	ID     string
	Source HintSource
}

var pathTenant = regexp.MustCompile(`^/t/([^/?#]+)`)

// TenantFromSubdomain extracts a tenant id from a hostname's first label.
// Bare hostnames and the www label yield nothing.
func TenantFromSubdomain(hostname string) string {
	parts := strings.Split(hostname, ".")
	if len(parts) < 2 {
		return ""
	}
	sub := parts[0]
	if sub == "" || sub == "www" {
		return ""
	}
	return sub
}

// TenantFromPath extracts a tenant id from a /t/<id> path prefix.
func TenantFromPath(path string) string {
	m := pathTenant.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}

// TenantFromQuery extracts a tenant id from the tenant query parameter.
func TenantFromQuery(query url.Values) string {
	return query.Get("tenant")
}

// HintsFromURL builds the ordered hint list for a dashboard location plus a
// previously remembered tenant id. Absent sources are skipped; the order of
// the remaining hints is fixed.
func HintsFromURL(u *url.URL, lastUsed string) []Hint {
	var hints []Hint
	if u != nil {
		if sub := TenantFromSubdomain(u.Hostname()); sub != "" {
			hints = append(hints, Hint{ID: sub, Source: HintSubdomain})
		}
		if p := TenantFromPath(u.Path); p != "" {
			hints = append(hints, Hint{ID: p, Source: HintPath})
		}
		if q := TenantFromQuery(u.Query()); q != "" {
			hints = append(hints, Hint{ID: q, Source: HintQuery})
		}
	}
	if lastUsed != "" {
		hints = append(hints, Hint{ID: lastUsed, Source: HintLastUsed})
	}
	return hints
}
