package application

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/obedier/fundscore/internal/domain"
)

// CommitteeTotal is one row of the top-committee ranking.
type CommitteeTotal struct {
	CommitteeID string          `json:"committee_id"`
	Total       decimal.Decimal `json:"total"`
}

// RecipientTotal is one row of the top-recipient ranking.
type RecipientTotal struct {
	PersonID string          `json:"person_id"`
	Name     string          `json:"name"`
	Party    string          `json:"party,omitempty"`
	Net      decimal.Decimal `json:"net"`
}

// PartyBreakdown groups scored candidates by party.
type PartyBreakdown struct {
	Candidates int             `json:"candidates"`
	Net        decimal.Decimal `json:"net"`
}

// Totals is the cross-candidate aggregate for a cycle set.
type Totals struct {
	// NetProIsraelContributions sums net contributions across every
	// scored candidate.
	NetProIsraelContributions decimal.Decimal `json:"net_pro_israel_contributions"`

	Subtotals  domain.Subtotals `json:"subtotals"`
	Candidates int              `json:"candidates"`

	// Degraded counts records computed from partial ledger data. A
	// non-zero count marks the totals as not fully authoritative.
	Degraded int `json:"degraded,omitempty"`
}

// Overview is the global view composed for the presentation layer.
type Overview struct {
	Cycles        []int                     `json:"cycles"`
	Scores        []domain.ScoreRecord      `json:"scores"`
	Totals        Totals                    `json:"totals"`
	TopCommittees []CommitteeTotal          `json:"top_committees"`
	TopRecipients []RecipientTotal          `json:"top_recipients"`
	ByParty       map[string]PartyBreakdown `json:"by_party"`
	ByCategory    map[string]int            `json:"by_category"`

	// Skipped names candidates whose computation failed entirely.
	Skipped []string `json:"skipped,omitempty"`
}

// BuildTotals folds score records into the cross-candidate totals. An
// empty record set is a valid zero summary, never an error.
func BuildTotals(records []domain.ScoreRecord) Totals {
	var t Totals
	for _, rec := range records {
		t.NetProIsraelContributions = t.NetProIsraelContributions.Add(rec.Net)
		t.Subtotals = t.Subtotals.Add(rec.Subtotals)
		t.Candidates++
		if rec.LowConfidence {
			t.Degraded++
		}
	}
	return t
}

// BuildOverview composes the global view from scored records and
// per-committee tallies. Records are ordered by descending effective
// score with person ID as the deterministic tie-break; rankings keep at
// most topN rows.
func BuildOverview(
	candidates map[string]domain.Candidate,
	records []domain.ScoreRecord,
	committeeTotals map[string]decimal.Decimal,
	cycles []int,
	topN int,
) Overview {
	scores := append([]domain.ScoreRecord(nil), records...)
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].EffectiveScore() != scores[j].EffectiveScore() {
			return scores[i].EffectiveScore() > scores[j].EffectiveScore()
		}
		return scores[i].PersonID < scores[j].PersonID
	})

	byParty := make(map[string]PartyBreakdown)
	byCategory := make(map[string]int)
	recipients := make([]RecipientTotal, 0, len(scores))
	for _, rec := range scores {
		cand := candidates[rec.PersonID]
		party := ""
		if filing, ok := cand.Current(); ok {
			party = filing.Party
		}
		breakdown := byParty[party]
		breakdown.Candidates++
		breakdown.Net = breakdown.Net.Add(rec.Net)
		byParty[party] = breakdown

		byCategory[rec.EffectiveCategory()]++

		recipients = append(recipients, RecipientTotal{
			PersonID: rec.PersonID,
			Name:     cand.Name,
			Party:    party,
			Net:      rec.Net,
		})
	}

	sort.Slice(recipients, func(i, j int) bool {
		if !recipients[i].Net.Equal(recipients[j].Net) {
			return recipients[i].Net.GreaterThan(recipients[j].Net)
		}
		return recipients[i].PersonID < recipients[j].PersonID
	})
	if topN > 0 && len(recipients) > topN {
		recipients = recipients[:topN]
	}

	committees := make([]CommitteeTotal, 0, len(committeeTotals))
	for id, total := range committeeTotals {
		committees = append(committees, CommitteeTotal{CommitteeID: id, Total: total})
	}
	sort.Slice(committees, func(i, j int) bool {
		if !committees[i].Total.Equal(committees[j].Total) {
			return committees[i].Total.GreaterThan(committees[j].Total)
		}
		return committees[i].CommitteeID < committees[j].CommitteeID
	})
	if topN > 0 && len(committees) > topN {
		committees = committees[:topN]
	}

	return Overview{
		Cycles:        cycles,
		Scores:        scores,
		Totals:        BuildTotals(scores),
		TopCommittees: committees,
		TopRecipients: recipients,
		ByParty:       byParty,
		ByCategory:    byCategory,
	}
}
