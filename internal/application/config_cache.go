package application

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

var _ ports.ConfigStore = (*CachedConfigStore)(nil)
var _ ports.ConfigAdmin = (*CachedConfigStore)(nil)

// CachedConfigStore wraps a configuration store with a process-wide
// read cache. Entries live until the TTL expires or an administrative
// write lands, whichever comes first; concurrent refreshes of the same
// entry collapse into one underlying read.
//
// The cache serves the scoring hot path, where every score request
// needs the same active committee and transaction-type sets.
type CachedConfigStore struct {
	store ports.ConfigStore
	admin ports.ConfigAdmin
	ttl   time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
	sf      singleflight.Group
}

type cacheEntry struct {
	value  any
	loaded time.Time
}

// NewCachedConfigStore wraps store with a TTL-bounded cache. The admin
// side may be nil for read-only deployments; every write through a
// non-nil admin invalidates the whole cache.
func NewCachedConfigStore(store ports.ConfigStore, admin ports.ConfigAdmin, ttl time.Duration) *CachedConfigStore {
	return &CachedConfigStore{
		store:   store,
		admin:   admin,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Invalidate drops every cached entry. Administrative writes call it
// automatically; expose it for external mutation paths.
func (c *CachedConfigStore) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// get serves key from cache or loads it through singleflight.
func (c *CachedConfigStore) get(key string, load func() (any, error)) (any, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && (c.ttl <= 0 || time.Since(entry.loaded) < c.ttl) {
		return entry.value, nil
	}

	value, err, _ := c.sf.Do(key, func() (any, error) {
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{value: v, loaded: time.Now()}
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// ListActiveCommittees implements ports.ConfigStore with caching per
// category.
func (c *CachedConfigStore) ListActiveCommittees(ctx context.Context, category domain.CommitteeCategory) ([]domain.Committee, error) {
	v, err := c.get("committees:"+string(category), func() (any, error) {
		return c.store.ListActiveCommittees(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Committee), nil
}

// ListActiveKeywords implements ports.ConfigStore with caching.
func (c *CachedConfigStore) ListActiveKeywords(ctx context.Context) ([]domain.Keyword, error) {
	v, err := c.get("keywords", func() (any, error) {
		return c.store.ListActiveKeywords(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Keyword), nil
}

// ListActiveTransactionTypes implements ports.ConfigStore with caching.
func (c *CachedConfigStore) ListActiveTransactionTypes(ctx context.Context) ([]domain.TransactionType, error) {
	v, err := c.get("transaction_types", func() (any, error) {
		return c.store.ListActiveTransactionTypes(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.TransactionType), nil
}

// UpsertCommittee implements ports.ConfigAdmin, invalidating the cache
// on success.
func (c *CachedConfigStore) UpsertCommittee(ctx context.Context, committeeID string, category domain.CommitteeCategory) (domain.Committee, error) {
	row, err := c.admin.UpsertCommittee(ctx, committeeID, category)
	if err != nil {
		return domain.Committee{}, err
	}
	c.Invalidate()
	return row, nil
}

// UpdateCommittee implements ports.ConfigAdmin.
func (c *CachedConfigStore) UpdateCommittee(ctx context.Context, id int64, update ports.CommitteeUpdate) (domain.Committee, error) {
	row, err := c.admin.UpdateCommittee(ctx, id, update)
	if err != nil {
		return domain.Committee{}, err
	}
	c.Invalidate()
	return row, nil
}

// DeactivateCommittee implements ports.ConfigAdmin.
func (c *CachedConfigStore) DeactivateCommittee(ctx context.Context, id int64) (domain.Committee, error) {
	row, err := c.admin.DeactivateCommittee(ctx, id)
	if err != nil {
		return domain.Committee{}, err
	}
	c.Invalidate()
	return row, nil
}

// UpsertKeyword implements ports.ConfigAdmin.
func (c *CachedConfigStore) UpsertKeyword(ctx context.Context, term string, category domain.CommitteeCategory, description string) (domain.Keyword, error) {
	row, err := c.admin.UpsertKeyword(ctx, term, category, description)
	if err != nil {
		return domain.Keyword{}, err
	}
	c.Invalidate()
	return row, nil
}

// UpdateKeyword implements ports.ConfigAdmin.
func (c *CachedConfigStore) UpdateKeyword(ctx context.Context, id int64, update ports.KeywordUpdate) (domain.Keyword, error) {
	row, err := c.admin.UpdateKeyword(ctx, id, update)
	if err != nil {
		return domain.Keyword{}, err
	}
	c.Invalidate()
	return row, nil
}

// DeactivateKeyword implements ports.ConfigAdmin.
func (c *CachedConfigStore) DeactivateKeyword(ctx context.Context, id int64) (domain.Keyword, error) {
	row, err := c.admin.DeactivateKeyword(ctx, id)
	if err != nil {
		return domain.Keyword{}, err
	}
	c.Invalidate()
	return row, nil
}

// UpsertTransactionType implements ports.ConfigAdmin.
func (c *CachedConfigStore) UpsertTransactionType(ctx context.Context, code, name string, proIsrael bool) (domain.TransactionType, error) {
	row, err := c.admin.UpsertTransactionType(ctx, code, name, proIsrael)
	if err != nil {
		return domain.TransactionType{}, err
	}
	c.Invalidate()
	return row, nil
}

// UpdateTransactionType implements ports.ConfigAdmin.
func (c *CachedConfigStore) UpdateTransactionType(ctx context.Context, id int64, update ports.TransactionTypeUpdate) (domain.TransactionType, error) {
	row, err := c.admin.UpdateTransactionType(ctx, id, update)
	if err != nil {
		return domain.TransactionType{}, err
	}
	c.Invalidate()
	return row, nil
}

// DeactivateTransactionType implements ports.ConfigAdmin.
func (c *CachedConfigStore) DeactivateTransactionType(ctx context.Context, id int64) (domain.TransactionType, error) {
	row, err := c.admin.DeactivateTransactionType(ctx, id)
	if err != nil {
		return domain.TransactionType{}, err
	}
	c.Invalidate()
	return row, nil
}
