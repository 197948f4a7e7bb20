package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// seedLedger loads a small fixture: two candidates across two cycles,
// two committees, and rows in every transaction class.
func seedLedger(t *testing.T, store *Store) *Ledger {
	t.Helper()
	db := store.DB()

	stmts := []struct {
		query string
		args  [][]any
	}{
		{
			query: `INSERT INTO candidates (person_id, candidate_id, name, cycle, party, office, state, district) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			args: [][]any{
				{"P001", "H0NY15148", "Rivera", 2022, "DEM", "H", "NY", "15"},
				{"P001", "H2NY15148", "Rivera", 2024, "DEM", "H", "NY", "15"},
				{"P002", "S4TX00012", "Keller", 2024, "REP", "S", "TX", ""},
			},
		},
		{
			query: `INSERT INTO candidate_totals (person_id, cycle, total_receipts) VALUES (?, ?, ?)`,
			args: [][]any{
				{"P001", 2022, "400000"},
				{"P001", 2024, "600000"},
				{"P002", 2024, "1500000"},
			},
		},
		{
			query: `INSERT INTO committee_names (committee_id, name) VALUES (?, ?)`,
			args: [][]any{
				{"C001", "American Future PAC"},
				{"C002", "Liberty Works Committee"},
			},
		},
		{
			query: `INSERT INTO contributions (committee_id, candidate_id, amount, cycle, type_code, memo_code) VALUES (?, ?, ?, ?, ?, ?)`,
			args: [][]any{
				{"C001", "H2NY15148", "5000", 2024, "24K", ""},
				{"C001", "H0NY15148", "2500", 2022, "24K", ""},
				{"C001", "S4TX00012", "1000", 2024, "24K", ""},
				{"C002", "H2NY15148", "750", 2024, "", "X"},
			},
		},
		{
			query: `INSERT INTO transfers (from_committee_id, to_committee_id, amount, cycle, type_code) VALUES (?, ?, ?, ?, ?)`,
			args: [][]any{
				{"C001", "C777", "10000", 2024, ""},
			},
		},
		{
			query: `INSERT INTO expenditures (committee_id, candidate_id, amount, cycle, direction) VALUES (?, ?, ?, ?, ?)`,
			args: [][]any{
				{"C002", "H2NY15148", "7000", 2024, "support"},
				{"C002", "S4TX00012", "2000", 2024, "oppose"},
			},
		},
		{
			query: `INSERT INTO conduit_contributions (conduit_committee_id, candidate_id, amount, cycle, memo_code) VALUES (?, ?, ?, ?, ?)`,
			args: [][]any{
				{"C001", "H2NY15148", "250", 2024, ""},
			},
		},
	}
	for _, stmt := range stmts {
		for _, args := range stmt.args {
			_, err := db.Exec(stmt.query, args...)
			require.NoError(t, err)
		}
	}
	return NewLedger(db)
}

// TestDirectContributions verifies committee, candidate, and cycle
// filtering on the direct read.
func TestDirectContributions(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)
	ctx := context.Background()

	rows, err := ledger.DirectContributions(ctx, []string{"C001"}, []string{"H2NY15148"}, domain.Cycles(2024))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(amountOf(t, "5000")))

	// One person, one filing ID per cycle.
	rows, err = ledger.DirectContributions(ctx, []string{"C001"}, []string{"H0NY15148", "H2NY15148"}, domain.AllCycles())
	require.NoError(t, err)
	assert.Len(t, rows, 2, "all cycles includes 2022")

	rows, err = ledger.DirectContributions(ctx, []string{"C001"}, nil, domain.Cycles(2024))
	require.NoError(t, err)
	assert.Len(t, rows, 2, "empty candidate set matches everyone")

	rows, err = ledger.DirectContributions(ctx, nil, []string{"H2NY15148"}, domain.Cycles(2024))
	require.NoError(t, err)
	assert.Empty(t, rows, "empty committee set reads nothing")

	rows, err = ledger.DirectContributions(ctx, []string{"C002"}, []string{"H2NY15148"}, domain.Cycles(2024))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.MemoSubEntry, rows[0].MemoCode, "memo rows are returned; predicates exclude them")
}

func TestCommitteeTransfersRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)

	rows, err := ledger.CommitteeTransfers(context.Background(), []string{"C001", "C002"}, domain.Cycles(2024))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "C001", rows[0].FromCommitteeID)
	assert.Equal(t, "C777", rows[0].ToCommitteeID)
}

func TestIndependentExpendituresRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)

	rows, err := ledger.IndependentExpenditures(context.Background(), []string{"C002"}, nil, domain.Cycles(2024))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byCandidate := map[string]domain.ExpenditureDirection{}
	for _, row := range rows {
		byCandidate[row.CandidateID] = row.Direction
	}
	assert.Equal(t, domain.DirectionSupport, byCandidate["H2NY15148"])
	assert.Equal(t, domain.DirectionOppose, byCandidate["S4TX00012"])
}

func TestConduitContributionsRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)

	rows, err := ledger.ConduitContributions(context.Background(), []string{"C001"}, []string{"H2NY15148"}, domain.Cycles(2024))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(amountOf(t, "250")))
}

// TestCandidateRead verifies person resolution with grouped filings and
// the not-found contract.
func TestCandidateRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)
	ctx := context.Background()

	cand, err := ledger.Candidate(ctx, "P001")
	require.NoError(t, err)
	assert.Equal(t, "Rivera", cand.Name)
	require.Len(t, cand.Filings, 2)
	assert.Equal(t, []int{2022, 2024}, cand.CycleYears())

	current, ok := cand.Current()
	require.True(t, ok)
	assert.Equal(t, "H2NY15148", current.CandidateID)

	_, err = ledger.Candidate(ctx, "P404")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestCandidatesRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)
	ctx := context.Background()

	all, err := ledger.Candidates(ctx, domain.AllCycles())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "P001", all[0].PersonID)
	assert.Equal(t, "P002", all[1].PersonID)

	in2022, err := ledger.Candidates(ctx, domain.Cycles(2022))
	require.NoError(t, err)
	require.Len(t, in2022, 1)
	assert.Equal(t, "P001", in2022[0].PersonID)
	assert.Len(t, in2022[0].Filings, 2, "a matched person carries all filings")
}

// TestTotalReceipts verifies per-cycle receipt summation and the
// zero-for-missing contract.
func TestTotalReceipts(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)
	ctx := context.Background()

	total, err := ledger.TotalReceipts(ctx, "P001", domain.Cycles(2024))
	require.NoError(t, err)
	assert.True(t, total.Equal(amountOf(t, "600000")))

	total, err = ledger.TotalReceipts(ctx, "P001", domain.AllCycles())
	require.NoError(t, err)
	assert.True(t, total.Equal(amountOf(t, "1000000")))

	total, err = ledger.TotalReceipts(ctx, "P404", domain.AllCycles())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCommitteeNamesRead(t *testing.T) {
	store := openTestStore(t)
	ledger := seedLedger(t, store)

	names, err := ledger.CommitteeNames(context.Background())
	require.NoError(t, err)
	require.Len(t, names, 2)
	assert.Equal(t, "American Future PAC", names[0].Name)
}
