package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
	"github.com/obedier/fundscore/internal/testutils"
)

// countingConfigStore counts underlying reads so cache behavior is
// observable.
type countingConfigStore struct {
	mu    sync.Mutex
	inner *testutils.MemoryConfigStore

	committeeReads int
	keywordReads   int
	typeReads      int
}

var _ ports.ConfigStore = (*countingConfigStore)(nil)

func (c *countingConfigStore) ListActiveCommittees(ctx context.Context, category domain.CommitteeCategory) ([]domain.Committee, error) {
	c.mu.Lock()
	c.committeeReads++
	c.mu.Unlock()
	return c.inner.ListActiveCommittees(ctx, category)
}

func (c *countingConfigStore) ListActiveKeywords(ctx context.Context) ([]domain.Keyword, error) {
	c.mu.Lock()
	c.keywordReads++
	c.mu.Unlock()
	return c.inner.ListActiveKeywords(ctx)
}

func (c *countingConfigStore) ListActiveTransactionTypes(ctx context.Context) ([]domain.TransactionType, error) {
	c.mu.Lock()
	c.typeReads++
	c.mu.Unlock()
	return c.inner.ListActiveTransactionTypes(ctx)
}

func (c *countingConfigStore) reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committeeReads
}

// TestCachedConfigStoreServesFromCache verifies that repeated reads
// within the TTL hit the cache.
func TestCachedConfigStoreServesFromCache(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	_, err := inner.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)

	counting := &countingConfigStore{inner: inner}
	cached := NewCachedConfigStore(counting, inner, time.Minute)

	for i := 0; i < 5; i++ {
		committees, err := cached.ListActiveCommittees(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, committees, 1)
	}

	assert.Equal(t, 1, counting.reads(), "one underlying read serves every call")
}

// TestCachedConfigStorePerCategoryKeys verifies that category-filtered
// reads cache independently.
func TestCachedConfigStorePerCategoryKeys(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	_, err := inner.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)
	_, err = inner.UpsertCommittee(context.Background(), "C002", domain.CategoryMinor)
	require.NoError(t, err)

	counting := &countingConfigStore{inner: inner}
	cached := NewCachedConfigStore(counting, inner, time.Minute)

	all, err := cached.ListActiveCommittees(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	major, err := cached.ListActiveCommittees(context.Background(), domain.CategoryMajor)
	require.NoError(t, err)
	assert.Len(t, major, 1)

	assert.Equal(t, 2, counting.reads(), "distinct categories load separately")
}

// TestCachedConfigStoreTTLExpiry verifies that entries reload after the
// TTL passes.
func TestCachedConfigStoreTTLExpiry(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	counting := &countingConfigStore{inner: inner}
	cached := NewCachedConfigStore(counting, inner, 10*time.Millisecond)

	_, err := cached.ListActiveTransactionTypes(context.Background())
	require.NoError(t, err)
	_, err = cached.ListActiveTransactionTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counting.typeReads)

	time.Sleep(20 * time.Millisecond)

	_, err = cached.ListActiveTransactionTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, counting.typeReads)
}

// TestCachedConfigStoreWriteInvalidates verifies that an
// administrative write through the cache is visible to the next read.
func TestCachedConfigStoreWriteInvalidates(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	counting := &countingConfigStore{inner: inner}
	cached := NewCachedConfigStore(counting, inner, time.Hour)

	committees, err := cached.ListActiveCommittees(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, committees)

	_, err = cached.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)

	committees, err = cached.ListActiveCommittees(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, committees, 1)
	assert.Equal(t, "C001", committees[0].CommitteeID)
}

// TestCachedConfigStoreDeactivateInvalidates verifies the same for
// deactivation, the path behind committee-membership-at-query-time.
func TestCachedConfigStoreDeactivateInvalidates(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	cached := NewCachedConfigStore(inner, inner, time.Hour)

	row, err := cached.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)

	committees, err := cached.ListActiveCommittees(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, committees, 1)

	_, err = cached.DeactivateCommittee(context.Background(), row.ID)
	require.NoError(t, err)

	committees, err = cached.ListActiveCommittees(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, committees)
}

// TestCachedConfigStoreErrorNotCached verifies that a failed load is
// retried on the next call instead of being served from cache.
func TestCachedConfigStoreErrorNotCached(t *testing.T) {
	inner := testutils.NewMemoryConfigStore()
	counting := &countingConfigStore{inner: inner}
	cached := NewCachedConfigStore(counting, inner, time.Minute)

	inner.FailReads = assert.AnError
	_, err := cached.ListActiveKeywords(context.Background())
	require.Error(t, err)

	inner.FailReads = nil
	keywords, err := cached.ListActiveKeywords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keywords)
	assert.Equal(t, 2, counting.keywordReads)
}
