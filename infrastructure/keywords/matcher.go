// Package keywords implements the administrative committee-name
// matcher. It searches the ledger's committee directory for names that
// match the configured keyword allow-list, producing ranked candidates
// for inclusion in the committee allow-list. Matching is an offline
// curation aid; nothing in the scoring hot path depends on it.
package keywords

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

var (
	validate = validator.New()

	// foldCaser is a package-level Unicode case folder. Reusing one
	// caser avoids reallocating it for every name comparison.
	foldCaser = cases.Fold()
)

// MatcherConfig defines the matching parameters. All fields are
// validated during matcher creation.
type MatcherConfig struct {
	// Threshold is the minimum word-level similarity (0.0-1.0) for a
	// fuzzy match. Substring matches always qualify regardless of
	// threshold.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0.0,max=1.0"`

	// MaxResults bounds the number of matches returned per search.
	// Zero means unbounded.
	MaxResults int `yaml:"max_results" json:"max_results" validate:"min=0"`
}

// DefaultMatcherConfig returns a MatcherConfig with sensible defaults.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{Threshold: 0.85, MaxResults: 50}
}

// Match pairs a directory committee with the keyword that selected it
// and the similarity that ranked it.
type Match struct {
	CommitteeID string         `json:"committee_id"`
	Name        string         `json:"name"`
	Keyword     domain.Keyword `json:"keyword"`

	// Similarity is 1.0 for substring hits and the best word-level
	// Levenshtein similarity otherwise.
	Similarity float64 `json:"similarity"`
}

// Matcher searches committee names against the keyword allow-list.
// It is stateless apart from its configuration and safe for concurrent
// use.
type Matcher struct {
	config    MatcherConfig
	directory ports.CommitteeDirectory
	keywords  ports.ConfigStore
}

// NewMatcher creates a Matcher over the given directory and keyword
// store. Returns an error if the configuration is invalid.
func NewMatcher(directory ports.CommitteeDirectory, keywords ports.ConfigStore, config MatcherConfig) (*Matcher, error) {
	if directory == nil {
		return nil, fmt.Errorf("committee directory is required")
	}
	if keywords == nil {
		return nil, fmt.Errorf("keyword store is required")
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &Matcher{config: config, directory: directory, keywords: keywords}, nil
}

// FindMatches runs every active keyword against every directory name
// and returns the qualifying matches ranked by similarity, then by
// committee ID for a stable order. A committee that matches several
// keywords appears once per matching keyword.
func (m *Matcher) FindMatches(ctx context.Context) ([]Match, error) {
	terms, err := m.keywords.ListActiveKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	names, err := m.directory.CommitteeNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list committee names: %w", err)
	}

	var matches []Match
	for _, name := range names {
		folded := foldCaser.String(name.Name)
		for _, kw := range terms {
			similarity, ok := m.score(folded, foldCaser.String(kw.Term))
			if !ok {
				continue
			}
			matches = append(matches, Match{
				CommitteeID: name.CommitteeID,
				Name:        name.Name,
				Keyword:     kw,
				Similarity:  similarity,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		if matches[i].CommitteeID != matches[j].CommitteeID {
			return matches[i].CommitteeID < matches[j].CommitteeID
		}
		return matches[i].Keyword.Term < matches[j].Keyword.Term
	})

	if m.config.MaxResults > 0 && len(matches) > m.config.MaxResults {
		matches = matches[:m.config.MaxResults]
	}
	return matches, nil
}

// score reports whether the folded name matches the folded term and the
// similarity that ranks the match. Substring containment is an exact
// hit; otherwise the best word-level Levenshtein similarity must clear
// the threshold.
func (m *Matcher) score(name, term string) (float64, bool) {
	if term == "" {
		return 0, false
	}
	if strings.Contains(name, term) {
		return 1.0, true
	}

	best := 0.0
	for _, word := range strings.Fields(name) {
		if s := similarity(word, term); s > best {
			best = s
		}
	}
	if best < m.config.Threshold {
		return 0, false
	}
	return best, true
}

// similarity computes normalized Levenshtein similarity between two
// strings. Rune counts keep the normalization consistent with the
// rune-based edit distance.
func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(s1, s2)

	maxLen := utf8.RuneCountInString(s1)
	if n := utf8.RuneCountInString(s2); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	result := 1.0 - float64(distance)/float64(maxLen)
	if result < 0 {
		result = 0
	}
	return result
}
