package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// Ledger reads the four transaction variants and candidate identities
// from a SQLite database. It performs membership and cycle filtering
// only; the qualification predicates in the domain package apply the
// business rules.
type Ledger struct {
	sqlDB *sql.DB
}

var _ ports.LedgerReader = (*Ledger)(nil)
var _ ports.CandidateReader = (*Ledger)(nil)
var _ ports.CommitteeDirectory = (*Ledger)(nil)

// NewLedger creates a ledger accessor over an open database handle,
// typically shared with the configuration store.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{sqlDB: db}
}

// placeholders renders a "?, ?, ..." list for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// cycleClause appends a cycle filter for explicit year selections.
// An all-cycles selector adds no clause.
func cycleClause(column string, cycles domain.CycleSelector, args []any) (string, []any) {
	if cycles.All {
		return "", args
	}
	years := cycles.Resolve(nil)
	for _, y := range years {
		args = append(args, y)
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, placeholders(len(years))), args
}

// candidateClause appends a filter on the cycle-scoped candidate IDs.
// An empty set matches every candidate and adds no clause.
func candidateClause(query string, candidateIDs []string, args []any) (string, []any) {
	if len(candidateIDs) == 0 {
		return query, args
	}
	for _, id := range candidateIDs {
		args = append(args, id)
	}
	return query + ` AND candidate_id IN (` + placeholders(len(candidateIDs)) + `)`, args
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// DirectContributions implements ports.LedgerReader.
func (l *Ledger) DirectContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.Contribution, error) {
	if len(committeeIDs) == 0 {
		return []domain.Contribution{}, nil
	}
	args := make([]any, 0, len(committeeIDs)+len(candidateIDs)+8)
	for _, id := range committeeIDs {
		args = append(args, id)
	}
	query := `SELECT committee_id, candidate_id, amount, cycle, type_code, memo_code
	          FROM contributions WHERE committee_id IN (` + placeholders(len(committeeIDs)) + `)`
	query, args = candidateClause(query, candidateIDs, args)
	var clause string
	clause, args = cycleClause("cycle", cycles, args)
	query += clause

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", err)
	}
	defer rows.Close()

	out := []domain.Contribution{}
	for rows.Next() {
		var c domain.Contribution
		var amount string
		if err := rows.Scan(&c.CommitteeID, &c.CandidateID, &amount, &c.Cycle, &c.TypeCode, &c.MemoCode); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		if c.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse contribution amount %q: %w", amount, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CommitteeTransfers implements ports.LedgerReader.
func (l *Ledger) CommitteeTransfers(ctx context.Context, committeeIDs []string, cycles domain.CycleSelector) ([]domain.Transfer, error) {
	if len(committeeIDs) == 0 {
		return []domain.Transfer{}, nil
	}
	args := make([]any, 0, len(committeeIDs)+8)
	for _, id := range committeeIDs {
		args = append(args, id)
	}
	query := `SELECT from_committee_id, to_committee_id, amount, cycle, type_code
	          FROM transfers WHERE from_committee_id IN (` + placeholders(len(committeeIDs)) + `)`
	var clause string
	clause, args = cycleClause("cycle", cycles, args)
	query += clause

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	out := []domain.Transfer{}
	for rows.Next() {
		var t domain.Transfer
		var amount string
		if err := rows.Scan(&t.FromCommitteeID, &t.ToCommitteeID, &amount, &t.Cycle, &t.TypeCode); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		if t.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse transfer amount %q: %w", amount, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// IndependentExpenditures implements ports.LedgerReader.
func (l *Ledger) IndependentExpenditures(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.IndependentExpenditure, error) {
	if len(committeeIDs) == 0 {
		return []domain.IndependentExpenditure{}, nil
	}
	args := make([]any, 0, len(committeeIDs)+len(candidateIDs)+8)
	for _, id := range committeeIDs {
		args = append(args, id)
	}
	query := `SELECT committee_id, candidate_id, amount, cycle, direction
	          FROM expenditures WHERE committee_id IN (` + placeholders(len(committeeIDs)) + `)`
	query, args = candidateClause(query, candidateIDs, args)
	var clause string
	clause, args = cycleClause("cycle", cycles, args)
	query += clause

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenditures: %w", err)
	}
	defer rows.Close()

	out := []domain.IndependentExpenditure{}
	for rows.Next() {
		var e domain.IndependentExpenditure
		var amount, direction string
		if err := rows.Scan(&e.CommitteeID, &e.CandidateID, &amount, &e.Cycle, &direction); err != nil {
			return nil, fmt.Errorf("scan expenditure: %w", err)
		}
		if e.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse expenditure amount %q: %w", amount, err)
		}
		e.Direction = domain.ExpenditureDirection(direction)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ConduitContributions implements ports.LedgerReader.
func (l *Ledger) ConduitContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.ConduitContribution, error) {
	if len(committeeIDs) == 0 {
		return []domain.ConduitContribution{}, nil
	}
	args := make([]any, 0, len(committeeIDs)+len(candidateIDs)+8)
	for _, id := range committeeIDs {
		args = append(args, id)
	}
	query := `SELECT conduit_committee_id, candidate_id, amount, cycle, memo_code
	          FROM conduit_contributions WHERE conduit_committee_id IN (` + placeholders(len(committeeIDs)) + `)`
	query, args = candidateClause(query, candidateIDs, args)
	var clause string
	clause, args = cycleClause("cycle", cycles, args)
	query += clause

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conduit contributions: %w", err)
	}
	defer rows.Close()

	out := []domain.ConduitContribution{}
	for rows.Next() {
		var c domain.ConduitContribution
		var amount string
		if err := rows.Scan(&c.ConduitCommitteeID, &c.CandidateID, &amount, &c.Cycle, &c.MemoCode); err != nil {
			return nil, fmt.Errorf("scan conduit contribution: %w", err)
		}
		if c.Amount, err = parseAmount(amount); err != nil {
			return nil, fmt.Errorf("parse conduit amount %q: %w", amount, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Candidate implements ports.CandidateReader.
func (l *Ledger) Candidate(ctx context.Context, personID string) (domain.Candidate, error) {
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT person_id, candidate_id, name, cycle, party, office, state, district
		 FROM candidates WHERE person_id = ? ORDER BY cycle`, personID)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("query candidate: %w", err)
	}
	defer rows.Close()

	var cand domain.Candidate
	for rows.Next() {
		var f domain.Filing
		if err := rows.Scan(&cand.PersonID, &f.CandidateID, &cand.Name, &f.Cycle, &f.Party, &f.Office, &f.State, &f.District); err != nil {
			return domain.Candidate{}, fmt.Errorf("scan candidate: %w", err)
		}
		cand.Filings = append(cand.Filings, f)
	}
	if err := rows.Err(); err != nil {
		return domain.Candidate{}, err
	}
	if len(cand.Filings) == 0 {
		return domain.Candidate{}, ports.ErrNotFound
	}
	return cand, nil
}

// Candidates implements ports.CandidateReader.
func (l *Ledger) Candidates(ctx context.Context, cycles domain.CycleSelector) ([]domain.Candidate, error) {
	query := `SELECT person_id, candidate_id, name, cycle, party, office, state, district
	          FROM candidates`
	args := []any{}
	if !cycles.All {
		years := cycles.Resolve(nil)
		for _, y := range years {
			args = append(args, y)
		}
		query += ` WHERE person_id IN (SELECT person_id FROM candidates WHERE cycle IN (` + placeholders(len(years)) + `))`
	}
	query += ` ORDER BY person_id, cycle`

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	byPerson := make(map[string]*domain.Candidate)
	for rows.Next() {
		var personID, name string
		var f domain.Filing
		if err := rows.Scan(&personID, &f.CandidateID, &name, &f.Cycle, &f.Party, &f.Office, &f.State, &f.District); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		cand, ok := byPerson[personID]
		if !ok {
			cand = &domain.Candidate{PersonID: personID, Name: name}
			byPerson[personID] = cand
		}
		cand.Filings = append(cand.Filings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(byPerson))
	for _, cand := range byPerson {
		out = append(out, *cand)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// TotalReceipts implements ports.CandidateReader. Missing totals
// return zero; the scoring engine treats that as the low-confidence
// fallback case.
func (l *Ledger) TotalReceipts(ctx context.Context, personID string, cycles domain.CycleSelector) (decimal.Decimal, error) {
	query := `SELECT total_receipts FROM candidate_totals WHERE person_id = ?`
	args := []any{personID}
	var clause string
	clause, args = cycleClause("cycle", cycles, args)
	query += clause

	rows, err := l.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan receipts: %w", err)
		}
		amount, err := parseAmount(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse receipts %q: %w", raw, err)
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

// CommitteeNames implements ports.CommitteeDirectory.
func (l *Ledger) CommitteeNames(ctx context.Context) ([]domain.CommitteeName, error) {
	rows, err := l.sqlDB.QueryContext(ctx,
		`SELECT committee_id, name FROM committee_names ORDER BY committee_id`)
	if err != nil {
		return nil, fmt.Errorf("query committee names: %w", err)
	}
	defer rows.Close()

	out := []domain.CommitteeName{}
	for rows.Next() {
		var n domain.CommitteeName
		if err := rows.Scan(&n.CommitteeID, &n.Name); err != nil {
			return nil, fmt.Errorf("scan committee name: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
