package domain

import "sort"

// Filing is one cycle-specific candidate registration. A person files
// once per cycle under a cycle-scoped external candidate ID; office,
// party, and district may change between filings.
type Filing struct {
	// CandidateID is the cycle-scoped external identifier (for example
	// a FEC candidate ID such as "H8NY15148").
	CandidateID string `json:"candidate_id"`

	// Cycle is the even filing year this registration belongs to.
	Cycle int `json:"cycle"`

	Party    string `json:"party"`
	Office   string `json:"office"`
	State    string `json:"state"`
	District string `json:"district,omitempty"`
}

// Candidate is a person-level identity spanning one or more
// cycle-specific filings. Current office, party, and district always
// reflect the most recent cycle's filing; older filings remain
// queryable for trend data.
type Candidate struct {
	// PersonID is the stable person-level identifier the engine keys
	// scores by.
	PersonID string `json:"person_id"`

	Name string `json:"name"`

	// Filings holds the per-cycle registrations, ordered ascending by
	// cycle.
	Filings []Filing `json:"filings"`
}

// Current returns the most recent filing, which defines the person's
// current office, party, and district. The second return value is
// false when the candidate has no filings.
func (c Candidate) Current() (Filing, bool) {
	if len(c.Filings) == 0 {
		return Filing{}, false
	}
	latest := c.Filings[0]
	for _, f := range c.Filings[1:] {
		if f.Cycle > latest.Cycle {
			latest = f
		}
	}
	return latest, true
}

// FilingFor returns the filing for the given cycle, if one exists.
func (c Candidate) FilingFor(cycle int) (Filing, bool) {
	for _, f := range c.Filings {
		if f.Cycle == cycle {
			return f, true
		}
	}
	return Filing{}, false
}

// CandidateIDs returns the cycle-scoped external candidate IDs for the
// filings matching the selector, deduplicated and sorted. Ledger rows
// are keyed by these IDs, never by the person ID, so every ledger
// query for a person goes through this translation.
func (c Candidate) CandidateIDs(cycles CycleSelector) []string {
	seen := make(map[string]struct{}, len(c.Filings))
	ids := make([]string, 0, len(c.Filings))
	for _, f := range c.Filings {
		if f.CandidateID == "" || !cycles.Matches(f.Cycle) {
			continue
		}
		if _, dup := seen[f.CandidateID]; dup {
			continue
		}
		seen[f.CandidateID] = struct{}{}
		ids = append(ids, f.CandidateID)
	}
	sort.Strings(ids)
	return ids
}

// CycleYears returns the ascending list of cycles the candidate filed
// in. It is the universe used when a score request selects all cycles.
func (c Candidate) CycleYears() []int {
	years := make([]int, 0, len(c.Filings))
	for _, f := range c.Filings {
		years = append(years, f.Cycle)
	}
	sel := CycleSelector{Years: years}
	sel.normalize()
	return sel.Years
}
