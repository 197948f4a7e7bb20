package domain

import "time"

// CommitteeCategory classifies an entry on the committee allow-list.
// Committees added directly by an administrator use the major, minor,
// or general categories; entries discovered through keyword expansion
// carry the category of the keyword that matched them.
type CommitteeCategory string

// Committee allow-list categories.
const (
	// CategoryMajor marks the principal committees whose activity
	// dominates the aggregate totals.
	CategoryMajor CommitteeCategory = "major"

	// CategoryMinor marks smaller committees tracked for completeness.
	CategoryMinor CommitteeCategory = "minor"

	// CategoryGeneral marks committees with mixed purposes whose
	// transactions are still attributed to the allow-list.
	CategoryGeneral CommitteeCategory = "general"

	// CategoryOrganization marks keyword-origin entries matched on an
	// organization name.
	CategoryOrganization CommitteeCategory = "organization"

	// CategoryPhrase marks keyword-origin entries matched on a phrase.
	CategoryPhrase CommitteeCategory = "phrase"

	// CategoryAcronym marks keyword-origin entries matched on an acronym.
	CategoryAcronym CommitteeCategory = "acronym"
)

// Valid reports whether the category is one of the known allow-list
// categories.
func (c CommitteeCategory) Valid() bool {
	switch c {
	case CategoryMajor, CategoryMinor, CategoryGeneral,
		CategoryOrganization, CategoryPhrase, CategoryAcronym:
		return true
	}
	return false
}

// Committee is one row of the committee allow-list. Rows are never
// hard-deleted: deactivation flips Active and the row remains for
// audit. Multiple historical rows may exist for one external ID; reads
// resolve duplicates by preferring the most recently created active row.
type Committee struct {
	// ID is the numeric surrogate key assigned by the configuration
	// store.
	ID int64 `json:"id"`

	// CommitteeID is the external regulatory identifier (for example a
	// FEC committee ID such as "C00797670").
	CommitteeID string `json:"committee_id"`

	// Category classifies how this entry reached the allow-list.
	Category CommitteeCategory `json:"category"`

	// Active marks whether the committee participates in new
	// aggregations. Deactivated rows are excluded going forward but
	// keep their audit history.
	Active bool `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Keyword is one row of the keyword allow-list, used administratively
// to expand the committee set by name matching. Keywords never
// participate in the scoring hot path.
type Keyword struct {
	ID          int64             `json:"id"`
	Term        string            `json:"term"`
	Category    CommitteeCategory `json:"category"`
	Description string            `json:"description,omitempty"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// TransactionType classifies a regulatory transaction-type code. Codes
// whose purpose is ambiguous as to direction are resolved through the
// ProIsrael flag: a code actively classified as not pro-Israel excludes
// the rows that carry it from support subtotals.
type TransactionType struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`

	// ProIsrael reports whether money moved under this code counts
	// toward support subtotals.
	ProIsrael bool `json:"pro_israel"`

	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommitteeName pairs a ledger committee identifier with its registered
// name. The keyword matcher consumes these; the scoring path never does.
type CommitteeName struct {
	CommitteeID string `json:"committee_id"`
	Name        string `json:"name"`
}
