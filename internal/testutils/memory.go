// Package testutils provides in-memory implementations of the engine's
// ports with fault injection, shared by package tests.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// MemoryConfigStore is an in-memory configuration store implementing
// both the read and administrative sides. It reproduces the
// most-recently-created-active-wins duplicate resolution of the SQLite
// store so engine tests exercise the same contract.
type MemoryConfigStore struct {
	mu         sync.Mutex
	nextID     int64
	committees []domain.Committee
	keywords   []domain.Keyword
	txTypes    []domain.TransactionType

	// FailReads, when set, is returned by every read operation.
	FailReads error
}

var _ ports.ConfigStore = (*MemoryConfigStore)(nil)
var _ ports.ConfigAdmin = (*MemoryConfigStore)(nil)

// NewMemoryConfigStore returns an empty in-memory configuration store.
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{nextID: 1}
}

// ListActiveCommittees implements ports.ConfigStore.
func (m *MemoryConfigStore) ListActiveCommittees(_ context.Context, category domain.CommitteeCategory) ([]domain.Committee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	// Most recently created active row wins per external ID.
	latest := make(map[string]domain.Committee)
	for _, c := range m.committees {
		if !c.Active {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		if cur, ok := latest[c.CommitteeID]; !ok || c.CreatedAt.After(cur.CreatedAt) || (c.CreatedAt.Equal(cur.CreatedAt) && c.ID > cur.ID) {
			latest[c.CommitteeID] = c
		}
	}
	out := make([]domain.Committee, 0, len(latest))
	for _, c := range latest {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommitteeID < out[j].CommitteeID })
	return out, nil
}

// ListActiveKeywords implements ports.ConfigStore.
func (m *MemoryConfigStore) ListActiveKeywords(_ context.Context) ([]domain.Keyword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make([]domain.Keyword, 0, len(m.keywords))
	for _, k := range m.keywords {
		if k.Active {
			out = append(out, k)
		}
	}
	return out, nil
}

// ListActiveTransactionTypes implements ports.ConfigStore.
func (m *MemoryConfigStore) ListActiveTransactionTypes(_ context.Context) ([]domain.TransactionType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make([]domain.TransactionType, 0, len(m.txTypes))
	for _, t := range m.txTypes {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpsertCommittee implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpsertCommittee(_ context.Context, committeeID string, category domain.CommitteeCategory) (domain.Committee, error) {
	if committeeID == "" {
		verr := domain.NewValidationError("committee")
		verr.AddError("committee id is required")
		return domain.Committee{}, verr
	}
	if !category.Valid() {
		verr := domain.NewValidationError("committee")
		verr.AddError(fmt.Sprintf("unknown category %q", category))
		return domain.Committee{}, verr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	row := domain.Committee{
		ID:          m.nextID,
		CommitteeID: committeeID,
		Category:    category,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.committees = append(m.committees, row)
	return row, nil
}

// UpdateCommittee implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpdateCommittee(_ context.Context, id int64, update ports.CommitteeUpdate) (domain.Committee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.committees {
		if m.committees[i].ID != id {
			continue
		}
		if update.Category != nil {
			m.committees[i].Category = *update.Category
		}
		if update.Active != nil {
			m.committees[i].Active = *update.Active
		}
		m.committees[i].UpdatedAt = time.Now().UTC()
		return m.committees[i], nil
	}
	return domain.Committee{}, ports.ErrNotFound
}

// DeactivateCommittee implements ports.ConfigAdmin.
func (m *MemoryConfigStore) DeactivateCommittee(ctx context.Context, id int64) (domain.Committee, error) {
	inactive := false
	return m.UpdateCommittee(ctx, id, ports.CommitteeUpdate{Active: &inactive})
}

// UpsertKeyword implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpsertKeyword(_ context.Context, term string, category domain.CommitteeCategory, description string) (domain.Keyword, error) {
	verr := domain.NewValidationError("keyword")
	if term == "" {
		verr.AddError("term is required")
	}
	if !category.Valid() {
		verr.AddError(fmt.Sprintf("unknown category %q", category))
	}
	if verr.HasErrors() {
		return domain.Keyword{}, verr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	row := domain.Keyword{
		ID:          m.nextID,
		Term:        term,
		Category:    category,
		Description: description,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.nextID++
	m.keywords = append(m.keywords, row)
	return row, nil
}

// UpdateKeyword implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpdateKeyword(_ context.Context, id int64, update ports.KeywordUpdate) (domain.Keyword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keywords {
		if m.keywords[i].ID != id {
			continue
		}
		if update.Term != nil {
			m.keywords[i].Term = *update.Term
		}
		if update.Category != nil {
			m.keywords[i].Category = *update.Category
		}
		if update.Description != nil {
			m.keywords[i].Description = *update.Description
		}
		if update.Active != nil {
			m.keywords[i].Active = *update.Active
		}
		m.keywords[i].UpdatedAt = time.Now().UTC()
		return m.keywords[i], nil
	}
	return domain.Keyword{}, ports.ErrNotFound
}

// DeactivateKeyword implements ports.ConfigAdmin.
func (m *MemoryConfigStore) DeactivateKeyword(ctx context.Context, id int64) (domain.Keyword, error) {
	inactive := false
	return m.UpdateKeyword(ctx, id, ports.KeywordUpdate{Active: &inactive})
}

// UpsertTransactionType implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpsertTransactionType(_ context.Context, code, name string, proIsrael bool) (domain.TransactionType, error) {
	if code == "" {
		verr := domain.NewValidationError("transaction type")
		verr.AddError("code is required")
		return domain.TransactionType{}, verr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	row := domain.TransactionType{
		ID:        m.nextID,
		Code:      code,
		Name:      name,
		ProIsrael: proIsrael,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.nextID++
	m.txTypes = append(m.txTypes, row)
	return row, nil
}

// UpdateTransactionType implements ports.ConfigAdmin.
func (m *MemoryConfigStore) UpdateTransactionType(_ context.Context, id int64, update ports.TransactionTypeUpdate) (domain.TransactionType, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.txTypes {
		if m.txTypes[i].ID != id {
			continue
		}
		if update.Name != nil {
			m.txTypes[i].Name = *update.Name
		}
		if update.ProIsrael != nil {
			m.txTypes[i].ProIsrael = *update.ProIsrael
		}
		if update.Active != nil {
			m.txTypes[i].Active = *update.Active
		}
		m.txTypes[i].UpdatedAt = time.Now().UTC()
		return m.txTypes[i], nil
	}
	return domain.TransactionType{}, ports.ErrNotFound
}

// DeactivateTransactionType implements ports.ConfigAdmin.
func (m *MemoryConfigStore) DeactivateTransactionType(ctx context.Context, id int64) (domain.TransactionType, error) {
	inactive := false
	return m.UpdateTransactionType(ctx, id, ports.TransactionTypeUpdate{Active: &inactive})
}

// MemoryLedger is an in-memory ledger accessor with per-variant fault
// injection.
type MemoryLedger struct {
	mu            sync.Mutex
	Contributions []domain.Contribution
	Transfers     []domain.Transfer
	Expenditures  []domain.IndependentExpenditure
	Conduits      []domain.ConduitContribution
	Names         []domain.CommitteeName

	// Fail maps a variant to the error its read returns.
	Fail map[domain.LedgerVariant]error
}

var _ ports.LedgerReader = (*MemoryLedger)(nil)
var _ ports.CommitteeDirectory = (*MemoryLedger)(nil)

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{Fail: make(map[domain.LedgerVariant]error)}
}

func memberOf(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// DirectContributions implements ports.LedgerReader.
func (m *MemoryLedger) DirectContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Fail[domain.VariantDirect]; err != nil {
		return nil, err
	}
	var out []domain.Contribution
	for _, row := range m.Contributions {
		if !memberOf(committeeIDs, row.CommitteeID) || !cycles.Matches(row.Cycle) {
			continue
		}
		if len(candidateIDs) > 0 && !memberOf(candidateIDs, row.CandidateID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// CommitteeTransfers implements ports.LedgerReader.
func (m *MemoryLedger) CommitteeTransfers(ctx context.Context, committeeIDs []string, cycles domain.CycleSelector) ([]domain.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Fail[domain.VariantTransfer]; err != nil {
		return nil, err
	}
	var out []domain.Transfer
	for _, row := range m.Transfers {
		if !memberOf(committeeIDs, row.FromCommitteeID) || !cycles.Matches(row.Cycle) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// IndependentExpenditures implements ports.LedgerReader.
func (m *MemoryLedger) IndependentExpenditures(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.IndependentExpenditure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Fail[domain.VariantExpenditure]; err != nil {
		return nil, err
	}
	var out []domain.IndependentExpenditure
	for _, row := range m.Expenditures {
		if !memberOf(committeeIDs, row.CommitteeID) || !cycles.Matches(row.Cycle) {
			continue
		}
		if len(candidateIDs) > 0 && !memberOf(candidateIDs, row.CandidateID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// ConduitContributions implements ports.LedgerReader.
func (m *MemoryLedger) ConduitContributions(ctx context.Context, committeeIDs, candidateIDs []string, cycles domain.CycleSelector) ([]domain.ConduitContribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.Fail[domain.VariantConduit]; err != nil {
		return nil, err
	}
	var out []domain.ConduitContribution
	for _, row := range m.Conduits {
		if !memberOf(committeeIDs, row.ConduitCommitteeID) || !cycles.Matches(row.Cycle) {
			continue
		}
		if len(candidateIDs) > 0 && !memberOf(candidateIDs, row.CandidateID) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// CommitteeNames implements ports.CommitteeDirectory.
func (m *MemoryLedger) CommitteeNames(ctx context.Context) ([]domain.CommitteeName, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.CommitteeName(nil), m.Names...), nil
}

// MemoryCandidates is an in-memory candidate reader.
type MemoryCandidates struct {
	mu       sync.Mutex
	People   map[string]domain.Candidate
	Receipts map[string]decimal.Decimal // keyed by personID|selector string

	// FailReceipts, when set, is returned by TotalReceipts.
	FailReceipts error
}

var _ ports.CandidateReader = (*MemoryCandidates)(nil)

// NewMemoryCandidates returns an empty in-memory candidate reader.
func NewMemoryCandidates() *MemoryCandidates {
	return &MemoryCandidates{
		People:   make(map[string]domain.Candidate),
		Receipts: make(map[string]decimal.Decimal),
	}
}

// Add registers a candidate and their receipts for a cycle selector.
func (m *MemoryCandidates) Add(c domain.Candidate, cycles domain.CycleSelector, receipts decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.People[c.PersonID] = c
	m.Receipts[c.PersonID+"|"+cycles.String()] = receipts
}

// Candidate implements ports.CandidateReader.
func (m *MemoryCandidates) Candidate(_ context.Context, personID string) (domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.People[personID]
	if !ok {
		return domain.Candidate{}, ports.ErrNotFound
	}
	return c, nil
}

// Candidates implements ports.CandidateReader.
func (m *MemoryCandidates) Candidates(_ context.Context, cycles domain.CycleSelector) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Candidate
	for _, c := range m.People {
		for _, f := range c.Filings {
			if cycles.Matches(f.Cycle) {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonID < out[j].PersonID })
	return out, nil
}

// TotalReceipts implements ports.CandidateReader.
func (m *MemoryCandidates) TotalReceipts(_ context.Context, personID string, cycles domain.CycleSelector) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReceipts != nil {
		return decimal.Zero, m.FailReceipts
	}
	return m.Receipts[personID+"|"+cycles.String()], nil
}

// MemoryOverrides is an in-memory override store.
type MemoryOverrides struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.ScoreOverride

	// FailReads, when set, is returned by OverrideFor.
	FailReads error
}

var _ ports.OverrideStore = (*MemoryOverrides)(nil)

// NewMemoryOverrides returns an empty in-memory override store.
func NewMemoryOverrides() *MemoryOverrides {
	return &MemoryOverrides{nextID: 1}
}

// OverrideFor implements ports.OverrideStore.
func (m *MemoryOverrides) OverrideFor(_ context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	scope := cycles.String()
	for i := range m.rows {
		if m.rows[i].PersonID == personID && m.rows[i].CycleScope == scope {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

// SetOverride implements ports.OverrideStore.
func (m *MemoryOverrides) SetOverride(_ context.Context, override domain.ScoreOverride) (domain.ScoreOverride, error) {
	if override.PersonID == "" || override.Reason == "" || override.CreatedBy == "" {
		verr := domain.NewValidationError("score override")
		if override.PersonID == "" {
			verr.AddError("person id is required")
		}
		if override.Reason == "" {
			verr.AddError("reason is required")
		}
		if override.CreatedBy == "" {
			verr.AddError("author is required")
		}
		return domain.ScoreOverride{}, verr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	override.ID = m.nextID
	override.CreatedAt = time.Now().UTC()
	m.nextID++
	m.rows = append(m.rows, override)
	return override, nil
}

// ClearOverride implements ports.OverrideStore.
func (m *MemoryOverrides) ClearOverride(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return ports.ErrNotFound
}
