package settings

import (
	"context"
	"sync"
	"time"

	"github.com/warunghq/warungctl/internal/log"
	"github.com/warunghq/warungctl/internal/theme"
)

// defaultFreshFor is the freshness window for a cached settings record.
const defaultFreshFor = 5 * time.Minute

// Fetcher is the backend surface the cache needs. Implemented by the API
// client.
type Fetcher interface {
	GetSettings(ctx context.Context, tenantID string) (Record, error)
	UpdateSettingsSection(ctx context.Context, tenantID, section string, patch Patch) (Record, error)
}

type entry struct {
	record    Record
	hasRecord bool
	fetchedAt time.Time
	stale     bool

	// cancel aborts an in-flight fetch so a stale read cannot clobber an
	// optimistic write.
	cancel context.CancelFunc

	// seq identifies the fetch that currently owns the entry. A fetch only
	// installs its result while its seq is still current; mutations bump it
	// so a superseded fetch is discarded even when its response completed
	// before the cancellation landed.
	seq uint64
}

// Cache caches tenant settings records keyed by tenant id.
//
// Mutations patch the cached record optimistically, roll back to the
// pre-mutation snapshot on failure, and always mark the entry stale so the
// next read re-validates from source. Appearance mutations apply theme
// variables before the network round trip completes.
//
// Concurrent patches to different sections are safe because patches merge
// at the sub-object level. Concurrent patches to the same section are
// last-resolved-wins.
type Cache struct {
	fetcher  Fetcher
	applier  theme.Applier
	logger   *log.Logger
	freshFor time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithApplier sets the theme applier notified on appearance changes.
func WithApplier(a theme.Applier) CacheOption {
	return func(c *Cache) { c.applier = a }
}

// WithFreshFor overrides the freshness window.
func WithFreshFor(d time.Duration) CacheOption {
	return func(c *Cache) { c.freshFor = d }
}

// WithLogger sets the cache's logger.
func WithLogger(logger *log.Logger) CacheOption {
	return func(c *Cache) { c.logger = logger }
}

// NewCache creates a settings cache over the given fetcher.
func NewCache(fetcher Fetcher, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher:  fetcher,
		applier:  theme.Nop,
		logger:   log.DefaultLogger(),
		freshFor: defaultFreshFor,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the settings record for a tenant, fetching from the backend
// when the cached copy is absent, stale, or past the freshness window.
func (c *Cache) Get(ctx context.Context, tenantID string) (Record, error) {
	c.mu.Lock()
	e := c.entry(tenantID)
	if e.hasRecord && !e.stale && time.Since(e.fetchedAt) < c.freshFor {
		record := e.record.Clone()
		c.mu.Unlock()
		return record, nil
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	e.seq++
	seq := e.seq
	e.cancel = cancel
	c.mu.Unlock()

	record, err := c.fetcher.GetSettings(fetchCtx, tenantID)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.seq != seq {
		// Superseded by a mutation. The result must not touch the entry,
		// even when the response completed before the cancel landed; serve
		// the cached (possibly optimistic) record instead.
		if e.hasRecord {
			return e.record.Clone(), nil
		}
		if err != nil {
			return nil, err
		}
		return record, nil
	}
	e.cancel = nil

	if err != nil {
		return nil, err
	}

	e.record = record
	e.hasRecord = true
	e.fetchedAt = time.Now()
	e.stale = false
	c.applyTheme(record)
	return record.Clone(), nil
}

// UpdateSection patches one settings section.
//
// The in-flight fetch for the same tenant, if any, is cancelled first. The
// patch is applied optimistically to the cached record, then sent to the
// backend; on success the cache takes the server's authoritative record, on
// failure it rolls back to the pre-mutation snapshot. Either way the entry
// is marked stale.
func (c *Cache) UpdateSection(ctx context.Context, tenantID, section string, patch Patch) (Record, error) {
	c.mu.Lock()
	e := c.entry(tenantID)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	// Invalidate any fetch still in flight, not just signal it.
	e.seq++

	snapshot := e.record.Clone()
	hadRecord := e.hasRecord
	if e.hasRecord {
		e.record = ApplyPatch(e.record, section, patch)
	}
	if section == SectionAppearance {
		// Perceived immediately, before the round trip completes.
		c.applier.Apply(theme.Derive(c.nextAppearance(e, patch)))
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		e.stale = true
		c.mu.Unlock()
	}()

	authoritative, err := c.fetcher.UpdateSettingsSection(ctx, tenantID, section, patch)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		e.record = snapshot
		e.hasRecord = hadRecord
		c.logger.WithError(err).Warn("settings patch rolled back", "tenant_id", tenantID, "section", section)
		return nil, err
	}

	e.record = authoritative
	e.hasRecord = true
	e.fetchedAt = time.Now()
	if section == SectionAppearance {
		c.applyTheme(authoritative)
	}
	return authoritative.Clone(), nil
}

// Invalidate marks a tenant's cached settings as needing refresh.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[tenantID]; ok {
		e.stale = true
	}
}

// Cached returns the cached record without fetching. ok is false when no
// record is cached.
func (c *Cache) Cached(tenantID string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, exists := c.entries[tenantID]
	if !exists || !e.hasRecord {
		return nil, false
	}
	return e.record.Clone(), true
}

// entry returns the cache entry for tenantID, creating it if needed. The
// caller holds c.mu.
func (c *Cache) entry(tenantID string) *entry {
	e, ok := c.entries[tenantID]
	if !ok {
		e = &entry{}
		c.entries[tenantID] = e
	}
	return e
}

// nextAppearance computes the colors to apply for an optimistic appearance
// patch: patched value, else cached value, with theme defaults filled in by
// Derive. The caller holds c.mu.
func (c *Cache) nextAppearance(e *entry, patch Patch) (primary, accent string) {
	cached := e.record.Section(SectionAppearance)
	primary = stringField(patch, "primaryColor")
	if primary == "" {
		primary = stringField(cached, "primaryColor")
	}
	accent = stringField(patch, "accent")
	if accent == "" {
		accent = stringField(cached, "accent")
	}
	return primary, accent
}

// applyTheme pushes theme variables from a record's appearance section. The
// caller holds c.mu.
func (c *Cache) applyTheme(record Record) {
	appearance := record.Section(SectionAppearance)
	c.applier.Apply(theme.Derive(
		stringField(appearance, "primaryColor"),
		stringField(appearance, "accent"),
	))
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
