package keywords

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/testutils"
)

func fixture(t *testing.T, names []domain.CommitteeName, terms ...string) *Matcher {
	t.Helper()
	config := testutils.NewMemoryConfigStore()
	for _, term := range terms {
		_, err := config.UpsertKeyword(context.Background(), term, domain.CategoryPhrase, "")
		require.NoError(t, err)
	}
	ledger := testutils.NewMemoryLedger()
	ledger.Names = names

	matcher, err := NewMatcher(ledger, config, DefaultMatcherConfig())
	require.NoError(t, err)
	return matcher
}

// TestNewMatcherValidation verifies the constructor requirements.
func TestNewMatcherValidation(t *testing.T) {
	config := testutils.NewMemoryConfigStore()
	ledger := testutils.NewMemoryLedger()

	_, err := NewMatcher(nil, config, DefaultMatcherConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory is required")

	_, err = NewMatcher(ledger, nil, DefaultMatcherConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyword store is required")

	_, err = NewMatcher(ledger, config, MatcherConfig{Threshold: 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

// TestFindMatchesSubstring verifies case-folded substring matching.
func TestFindMatchesSubstring(t *testing.T) {
	matcher := fixture(t, []domain.CommitteeName{
		{CommitteeID: "C001", Name: "Friends of Israel Action Fund"},
		{CommitteeID: "C002", Name: "Clean Water Alliance"},
	}, "israel")

	matches, err := matcher.FindMatches(context.Background())
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "C001", matches[0].CommitteeID)
	assert.Equal(t, "israel", matches[0].Keyword.Term)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

// TestFindMatchesFuzzy verifies word-level Levenshtein matching above
// the threshold.
func TestFindMatchesFuzzy(t *testing.T) {
	config := testutils.NewMemoryConfigStore()
	_, err := config.UpsertKeyword(context.Background(), "israel", domain.CategoryPhrase, "")
	require.NoError(t, err)

	ledger := testutils.NewMemoryLedger()
	ledger.Names = []domain.CommitteeName{
		{CommitteeID: "C001", Name: "Isreal Advocacy Network"}, // transposed name
		{CommitteeID: "C002", Name: "Harbor Trust PAC"},
	}

	matcher, err := NewMatcher(ledger, config, MatcherConfig{Threshold: 0.6, MaxResults: 50})
	require.NoError(t, err)

	matches, err := matcher.FindMatches(context.Background())
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "C001", matches[0].CommitteeID)
	assert.Greater(t, matches[0].Similarity, 0.5)
	assert.Less(t, matches[0].Similarity, 1.0)
}

// TestFindMatchesRanking verifies descending similarity order with the
// committee ID tie-break, and MaxResults truncation.
func TestFindMatchesRanking(t *testing.T) {
	config := testutils.NewMemoryConfigStore()
	_, err := config.UpsertKeyword(context.Background(), "israel", domain.CategoryPhrase, "")
	require.NoError(t, err)

	ledger := testutils.NewMemoryLedger()
	ledger.Names = []domain.CommitteeName{
		{CommitteeID: "C003", Name: "Isreal Policy Forum"},
		{CommitteeID: "C002", Name: "Israel Allies Fund"},
		{CommitteeID: "C001", Name: "United for Israel"},
	}

	matcher, err := NewMatcher(ledger, config, MatcherConfig{Threshold: 0.6, MaxResults: 2})
	require.NoError(t, err)

	matches, err := matcher.FindMatches(context.Background())
	require.NoError(t, err)

	require.Len(t, matches, 2, "truncated to max results")
	assert.Equal(t, "C001", matches[0].CommitteeID, "exact hits first, tie-broken by ID")
	assert.Equal(t, "C002", matches[1].CommitteeID)
	assert.Equal(t, 1.0, matches[0].Similarity)
}

func TestFindMatchesBelowThreshold(t *testing.T) {
	matcher := fixture(t, []domain.CommitteeName{
		{CommitteeID: "C001", Name: "Teachers United"},
	}, "israel")

	matches, err := matcher.FindMatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// TestFindMatchesInactiveKeyword verifies deactivated keywords never
// match.
func TestFindMatchesInactiveKeyword(t *testing.T) {
	config := testutils.NewMemoryConfigStore()
	row, err := config.UpsertKeyword(context.Background(), "israel", domain.CategoryPhrase, "")
	require.NoError(t, err)
	_, err = config.DeactivateKeyword(context.Background(), row.ID)
	require.NoError(t, err)

	ledger := testutils.NewMemoryLedger()
	ledger.Names = []domain.CommitteeName{{CommitteeID: "C001", Name: "Friends of Israel"}}

	matcher, err := NewMatcher(ledger, config, DefaultMatcherConfig())
	require.NoError(t, err)

	matches, err := matcher.FindMatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

// TestSimilarity verifies the normalized edit-distance computation,
// including Unicode rune handling.
func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		s1, s2   string
		expected float64
	}{
		{"identical", "israel", "israel", 1.0},
		{"both empty", "", "", 1.0},
		{"one edit in six runes", "isreal", "israel", 1.0 - 2.0/6.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"unicode runes", "café", "cafe", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, similarity(tt.s1, tt.s2), 1e-9)
		})
	}
}
