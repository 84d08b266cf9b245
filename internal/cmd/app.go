package cmd

import (
	"fmt"
	"net/url"

	"github.com/warunghq/warungctl/internal/api"
	"github.com/warunghq/warungctl/internal/capabilities"
	"github.com/warunghq/warungctl/internal/config"
	"github.com/warunghq/warungctl/internal/log"
	"github.com/warunghq/warungctl/internal/session"
	"github.com/warunghq/warungctl/internal/settings"
	"github.com/warunghq/warungctl/internal/tenant"
	"github.com/warunghq/warungctl/internal/theme"
)

// app wires the client components for one command invocation. Each command
// builds its own app, so nothing is process-global except the default
// logger.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	session *session.Store
	client  *api.Client
}

// newApp loads configuration, restores the persisted session, and builds
// the API client.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.FormatText,
		Output: log.OutputStderr(),
	})
	log.SetDefaultLogger(logger)

	store := session.NewStore(session.WithPersister(session.NewFileStore(cfg.SessionFile())))
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		session: store,
		client:  api.NewClient(cfg.APIURL, store, api.WithLogger(logger)),
	}, nil
}

// resolver builds a tenant resolver. locationOverride, when non-empty,
// replaces the configured dashboard URL as the hint source.
func (a *app) resolver(locationOverride string) (*tenant.Resolver, error) {
	location, err := a.location(locationOverride)
	if err != nil {
		return nil, err
	}
	return tenant.NewResolver(a.client, a.session,
		tenant.WithLocation(location),
		tenant.WithLastUsed(tenant.NewLastUsed(a.cfg.LastTenantFile())),
		tenant.WithLogger(a.logger),
	), nil
}

func (a *app) location(override string) (*url.URL, error) {
	raw := override
	if raw == "" {
		raw = a.cfg.DashboardURL
	}
	if raw == "" {
		return nil, nil
	}
	location, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard URL %q: %w", raw, err)
	}
	return location, nil
}

// gate builds the capabilities gate.
func (a *app) gate() *capabilities.Gate {
	return capabilities.NewGate(a.client, a.session, capabilities.WithLogger(a.logger))
}

// settingsCache builds the settings cache with the given theme applier.
func (a *app) settingsCache(applier theme.Applier) *settings.Cache {
	return settings.NewCache(a.client,
		settings.WithApplier(applier),
		settings.WithLogger(a.logger),
	)
}

// requireTenant returns the active tenant id or an actionable error.
func (a *app) requireTenant() (string, error) {
	state := a.session.Snapshot()
	if !state.HasTenant() {
		return "", fmt.Errorf("no active tenant; run 'warungctl tenant resolve' first")
	}
	return state.TenantID, nil
}
