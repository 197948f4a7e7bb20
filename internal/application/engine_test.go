package application

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
	"github.com/obedier/fundscore/internal/testutils"
)

// engineFixture wires an engine over in-memory stores seeded with one
// committee and two candidates.
type engineFixture struct {
	config     *testutils.MemoryConfigStore
	ledger     *testutils.MemoryLedger
	candidates *testutils.MemoryCandidates
	overrides  *testutils.MemoryOverrides
	engine     *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	config := testutils.NewMemoryConfigStore()
	_, err := config.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)

	ledger := testutils.NewMemoryLedger()
	candidates := testutils.NewMemoryCandidates()
	overrides := testutils.NewMemoryOverrides()

	engine, err := NewEngine(DefaultConfig(), config, ledger, candidates,
		WithOverrides(overrides),
	)
	require.NoError(t, err)

	return &engineFixture{
		config:     config,
		ledger:     ledger,
		candidates: candidates,
		overrides:  overrides,
		engine:     engine,
	}
}

func (f *engineFixture) addCandidate(personID string, cycles domain.CycleSelector, receipts string) {
	f.candidates.Add(domain.Candidate{
		PersonID: personID,
		Name:     "Candidate " + personID,
		Filings: []domain.Filing{
			{CandidateID: "H4XX" + personID, Cycle: 2024, Party: "DEM", Office: "H", State: "NY"},
		},
	}, cycles, amount(receipts))
}

// TestGetScore verifies the end-to-end single-candidate path: direct
// contributions, receipts normalization, and categorization.
func TestGetScore(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("500000"), Cycle: 2024},
	}

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.Equal(t, "P001", rec.PersonID)
	assert.Equal(t, []int{2024}, rec.Cycles)
	assert.True(t, amount("500000").Equal(rec.Net))
	assert.InDelta(t, 2.5, rec.RawScore, 1e-9)
	assert.Equal(t, "Neutral", rec.Category)
	assert.Equal(t, domain.StateCategorized, rec.State)
	assert.False(t, rec.LowConfidence)
}

// TestGetScoreDeterministic verifies that repeated calls over an
// unchanged ledger produce byte-identical records.
func TestGetScoreDeterministic(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "800000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("123456.78"), Cycle: 2024},
	}
	f.ledger.Expenditures = []domain.IndependentExpenditure{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("1000"), Cycle: 2024, Direction: domain.DirectionOppose},
	}

	first, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)
	second, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.True(t, reflect.DeepEqual(first, second))
}

// TestGetScoreValidation verifies the request validation failures.
func TestGetScoreValidation(t *testing.T) {
	f := newEngineFixture(t)

	tests := []struct {
		name          string
		personID      string
		cycles        domain.CycleSelector
		expectedError string
	}{
		{
			name:          "empty person id",
			cycles:        domain.Cycles(2024),
			expectedError: "person id is required",
		},
		{
			name:          "empty cycle selector",
			personID:      "P001",
			expectedError: "at least one year",
		},
		{
			name:          "odd year",
			personID:      "P001",
			cycles:        domain.Cycles(2023),
			expectedError: "not an even filing year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.GetScore(context.Background(), tt.personID, tt.cycles)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

// TestGetScoreNotFound verifies that an unknown candidate fails with
// ErrNotFound instead of returning a zero score.
func TestGetScoreNotFound(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.GetScore(context.Background(), "P404", domain.Cycles(2024))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

// TestGetScoreNoActivity verifies that a known candidate with no
// qualifying transactions gets an authoritative zero record.
func TestGetScoreNoActivity(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "250000")

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.True(t, rec.Net.IsZero())
	assert.InDelta(t, 0, rec.CurvedScore, 1e-9)
	assert.Equal(t, "Anti", rec.Category)
	assert.False(t, rec.LowConfidence, "zero from real data is authoritative")
}

// TestGetScoreDegradedVariant verifies that a failed variant read
// produces a low-confidence record naming the variant.
func TestGetScoreDegradedVariant(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "100000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("10000"), Cycle: 2024},
	}
	f.ledger.Fail[domain.VariantExpenditure] = errors.New("expenditure table corrupt")

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.True(t, rec.LowConfidence)
	assert.Equal(t, []domain.LedgerVariant{domain.VariantExpenditure}, rec.DegradedVariants)
	assert.True(t, amount("10000").Equal(rec.Subtotals.DirectSupport), "healthy variants still sum")
	assert.Equal(t, domain.ConfidenceLow, rec.Confidence.IndependentExpenditure)
}

// TestGetScoreOverride verifies that an override supersedes the
// presentation values without mutating the computed ones.
func TestGetScoreOverride(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("900000"), Cycle: 2024},
	}

	_, err := f.overrides.SetOverride(context.Background(), domain.ScoreOverride{
		PersonID:   "P001",
		CycleScope: cycles.String(),
		Score:      1.5,
		Category:   "Limited",
		Reason:     "pending amended filings",
		CreatedBy:  "analyst@example.org",
	})
	require.NoError(t, err)

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	require.NotNil(t, rec.Override)
	assert.Equal(t, 1.5, rec.EffectiveScore())
	assert.Equal(t, "Limited", rec.EffectiveCategory())
	assert.InDelta(t, 4.5, rec.CurvedScore, 1e-9, "computed score is preserved")
	assert.True(t, rec.LowConfidence)
}

// TestGetScoreFilingKeyedLedger verifies the person-to-filing ID
// translation: ledger rows keyed by the cycle-scoped candidate ID are
// found for the person, and rows keyed by the bare person ID are not.
func TestGetScoreFilingKeyedLedger(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.candidates.Add(domain.Candidate{
		PersonID: "P001",
		Name:     "Rivera",
		Filings: []domain.Filing{
			{CandidateID: "H8NY15148", Cycle: 2024, Party: "DEM", Office: "H", State: "NY"},
		},
	}, cycles, amount("1000000"))
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H8NY15148", Amount: amount("10000"), Cycle: 2024},
		// Rows keyed by the person ID are foreign to the ledger and must
		// never be attributed.
		{CommitteeID: "C001", CandidateID: "P001", Amount: amount("99999"), Cycle: 2024},
	}

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.True(t, amount("10000").Equal(rec.Net), "got %s", rec.Net)
	assert.True(t, amount("10000").Equal(rec.Subtotals.DirectSupport))
	assert.False(t, rec.LowConfidence)
}

// TestGetScoreMultiCycleFilingIDs verifies that a person whose filings
// carry distinct candidate IDs per cycle aggregates across all of them.
func TestGetScoreMultiCycleFilingIDs(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2022, 2024)
	f.candidates.Add(domain.Candidate{
		PersonID: "P001",
		Name:     "Rivera",
		Filings: []domain.Filing{
			{CandidateID: "H2NY15111", Cycle: 2022, Party: "DEM", Office: "H", State: "NY"},
			{CandidateID: "H8NY15148", Cycle: 2024, Party: "DEM", Office: "H", State: "NY"},
		},
	}, cycles, amount("1000000"))
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H2NY15111", Amount: amount("4000"), Cycle: 2022},
		{CommitteeID: "C001", CandidateID: "H8NY15148", Amount: amount("6000"), Cycle: 2024},
	}

	rec, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)

	assert.True(t, amount("10000").Equal(rec.Net))
}

// TestGetScoreNoFilingsInCycles verifies that a person with no filing
// in the selected cycles gets a zero record and never widens the
// ledger query to other candidates.
func TestGetScoreNoFilingsInCycles(t *testing.T) {
	f := newEngineFixture(t)
	f.candidates.Add(domain.Candidate{
		PersonID: "P001",
		Filings: []domain.Filing{
			{CandidateID: "H8NY15148", Cycle: 2024, Party: "DEM", Office: "H", State: "NY"},
		},
	}, domain.Cycles(2020), amount("0"))
	// Another candidate's activity in the queried cycle must not bleed
	// into the empty filing set.
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "S0TX00222", Amount: amount("50000"), Cycle: 2020},
	}

	rec, err := f.engine.GetScore(context.Background(), "P001", domain.Cycles(2020))
	require.NoError(t, err)

	assert.True(t, rec.Net.IsZero())
	assert.Empty(t, rec.DegradedVariants)
}

// TestGetOverview verifies the bulk path: per-candidate records,
// ordering by effective score, totals, and rankings.
func TestGetOverview(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000000")
	f.addCandidate("P002", cycles, "1000000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("200000"), Cycle: 2024},
		{CommitteeID: "C001", CandidateID: "H4XXP002", Amount: amount("800000"), Cycle: 2024},
	}

	overview, err := f.engine.GetOverview(context.Background(), cycles)
	require.NoError(t, err)

	require.Len(t, overview.Scores, 2)
	assert.Equal(t, "P002", overview.Scores[0].PersonID, "highest effective score first")
	assert.Equal(t, "P001", overview.Scores[1].PersonID)

	assert.Equal(t, 2, overview.Totals.Candidates)
	assert.True(t, amount("1000000").Equal(overview.Totals.NetProIsraelContributions))

	require.Len(t, overview.TopCommittees, 1)
	assert.Equal(t, "C001", overview.TopCommittees[0].CommitteeID)
	assert.True(t, amount("1000000").Equal(overview.TopCommittees[0].Total))

	require.Len(t, overview.TopRecipients, 2)
	assert.Equal(t, "P002", overview.TopRecipients[0].PersonID)

	assert.Equal(t, 2, overview.ByParty["DEM"].Candidates)
	assert.Empty(t, overview.Skipped)
}

// TestGetOverviewOverrideLookupFailure verifies that a failing
// override read marks bulk records low confidence instead of silently
// presenting them without their overrides.
func TestGetOverviewOverrideLookupFailure(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("500000"), Cycle: 2024},
	}
	f.overrides.FailReads = errors.New("override table locked")

	overview, err := f.engine.GetOverview(context.Background(), cycles)
	require.NoError(t, err)

	require.Len(t, overview.Scores, 1)
	assert.Nil(t, overview.Scores[0].Override)
	assert.True(t, overview.Scores[0].LowConfidence, "record without its overrides is not authoritative")
}

// TestGetOverviewEmptyCohort verifies that an empty cohort yields a
// zero summary, never an error.
func TestGetOverviewEmptyCohort(t *testing.T) {
	f := newEngineFixture(t)

	overview, err := f.engine.GetOverview(context.Background(), domain.Cycles(2024))
	require.NoError(t, err)

	assert.Empty(t, overview.Scores)
	assert.Equal(t, 0, overview.Totals.Candidates)
	assert.True(t, overview.Totals.NetProIsraelContributions.IsZero())
}

// TestGetOverviewPercentileCohort verifies that a rank-based curve sees
// the whole cohort, not each candidate in isolation.
func TestGetOverviewPercentileCohort(t *testing.T) {
	config := testutils.NewMemoryConfigStore()
	_, err := config.UpsertCommittee(context.Background(), "C001", domain.CategoryMajor)
	require.NoError(t, err)

	ledger := testutils.NewMemoryLedger()
	candidates := testutils.NewMemoryCandidates()

	cfg := DefaultConfig()
	cfg.Curve = CurveConfig{Type: "percentile"}
	engine, err := NewEngine(cfg, config, ledger, candidates)
	require.NoError(t, err)

	cycles := domain.Cycles(2024)
	for i, share := range []string{"100000", "300000", "500000"} {
		personID := string(rune('A' + i))
		candidates.Add(domain.Candidate{
			PersonID: personID,
			Filings:  []domain.Filing{{CandidateID: "H" + personID, Cycle: 2024}},
		}, cycles, amount("1000000"))
		ledger.Contributions = append(ledger.Contributions, domain.Contribution{
			CommitteeID: "C001", CandidateID: "H" + personID, Amount: amount(share), Cycle: 2024,
		})
	}

	overview, err := engine.GetOverview(context.Background(), cycles)
	require.NoError(t, err)
	require.Len(t, overview.Scores, 3)

	// Three distinct raw scores rank at 1/6, 3/6, and 5/6 of the range.
	assert.InDelta(t, 5.0*5.0/6.0, overview.Scores[0].CurvedScore, 1e-9)
	assert.InDelta(t, 2.5, overview.Scores[1].CurvedScore, 1e-9)
	assert.InDelta(t, 5.0/6.0, overview.Scores[2].CurvedScore, 1e-9)
}

// TestGetTotals verifies the totals-only path.
func TestGetTotals(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "500000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("50000"), Cycle: 2024},
	}
	f.ledger.Conduits = []domain.ConduitContribution{
		{ConduitCommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("2500"), Cycle: 2024},
	}

	totals, err := f.engine.GetTotals(context.Background(), cycles)
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Candidates)
	assert.True(t, amount("52500").Equal(totals.NetProIsraelContributions))
	assert.True(t, amount("2500").Equal(totals.Subtotals.Bundled))
	assert.Equal(t, 0, totals.Degraded)
}

// TestGetTotalsDegradedCount verifies that partially computed records
// are counted so consumers can see the totals are not authoritative.
func TestGetTotalsDegradedCount(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "500000")
	f.ledger.Fail[domain.VariantConduit] = errors.New("conduit read failed")

	totals, err := f.engine.GetTotals(context.Background(), cycles)
	require.NoError(t, err)

	assert.Equal(t, 1, totals.Candidates)
	assert.Equal(t, 1, totals.Degraded)
}

// TestDeactivatedCommitteeExcluded verifies
// committee-membership-at-query-time: deactivating a committee removes
// its transactions from new aggregations immediately.
func TestDeactivatedCommitteeExcluded(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000000")
	f.ledger.Contributions = []domain.Contribution{
		{CommitteeID: "C001", CandidateID: "H4XXP001", Amount: amount("400000"), Cycle: 2024},
	}

	before, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)
	assert.True(t, amount("400000").Equal(before.Net))

	_, err = f.config.DeactivateCommittee(context.Background(), 1)
	require.NoError(t, err)

	after, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.NoError(t, err)
	assert.True(t, after.Net.IsZero())
	assert.Equal(t, "Anti", after.Category)
}

// TestConfigSnapshotFailure verifies that a configuration read failure
// fails the request rather than silently scoring with no committees.
func TestConfigSnapshotFailure(t *testing.T) {
	f := newEngineFixture(t)
	cycles := domain.Cycles(2024)
	f.addCandidate("P001", cycles, "1000")
	f.config.FailReads = errors.New("config store down")

	_, err := f.engine.GetScore(context.Background(), "P001", cycles)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration snapshot")
}
