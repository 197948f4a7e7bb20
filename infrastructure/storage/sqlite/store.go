// Package sqlite provides SQLite-backed implementations of the
// engine's storage ports: the configuration store, the ledger
// accessor, and the candidate reader.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/obedier/fundscore/internal/domain"
	"github.com/obedier/fundscore/internal/ports"
)

// Store persists configuration-store reference rows and score
// overrides in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ ports.ConfigStore = (*Store)(nil)
var _ ports.ConfigAdmin = (*Store)(nil)
var _ ports.OverrideStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path and creates the schema when
// missing.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// DB exposes the underlying handle so the ledger accessor can share
// one database file.
func (s *Store) DB() *sql.DB { return s.sqlDB }

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ListActiveCommittees implements ports.ConfigStore. Duplicate rows
// for one external ID resolve to the most recently created active row.
func (s *Store) ListActiveCommittees(ctx context.Context, category domain.CommitteeCategory) ([]domain.Committee, error) {
	query := `SELECT c.id, c.committee_id, c.category, c.active, c.created_at, c.updated_at
	          FROM committees c
	          WHERE c.active = 1
	            AND c.id = (SELECT MAX(c2.id) FROM committees c2
	                        WHERE c2.committee_id = c.committee_id AND c2.active = 1)`
	args := []any{}
	if category != "" {
		query += ` AND c.category = ?`
		args = append(args, string(category))
	}
	query += ` ORDER BY c.committee_id`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ports.NewStoreError("committee", "list", err)
	}
	defer rows.Close()

	out := []domain.Committee{}
	for rows.Next() {
		var c domain.Committee
		var active int
		var created, updated int64
		if err := rows.Scan(&c.ID, &c.CommitteeID, &c.Category, &active, &created, &updated); err != nil {
			return nil, ports.NewStoreError("committee", "scan", err)
		}
		c.Active = active != 0
		c.CreatedAt = fromMillis(created)
		c.UpdatedAt = fromMillis(updated)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListActiveKeywords implements ports.ConfigStore.
func (s *Store) ListActiveKeywords(ctx context.Context) ([]domain.Keyword, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, term, category, description, active, created_at, updated_at
		 FROM keywords WHERE active = 1 ORDER BY term`)
	if err != nil {
		return nil, ports.NewStoreError("keyword", "list", err)
	}
	defer rows.Close()

	out := []domain.Keyword{}
	for rows.Next() {
		var k domain.Keyword
		var active int
		var created, updated int64
		if err := rows.Scan(&k.ID, &k.Term, &k.Category, &k.Description, &active, &created, &updated); err != nil {
			return nil, ports.NewStoreError("keyword", "scan", err)
		}
		k.Active = active != 0
		k.CreatedAt = fromMillis(created)
		k.UpdatedAt = fromMillis(updated)
		out = append(out, k)
	}
	return out, rows.Err()
}

// ListActiveTransactionTypes implements ports.ConfigStore.
func (s *Store) ListActiveTransactionTypes(ctx context.Context) ([]domain.TransactionType, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, code, name, pro_israel, active, created_at, updated_at
		 FROM transaction_types WHERE active = 1 ORDER BY code`)
	if err != nil {
		return nil, ports.NewStoreError("transaction type", "list", err)
	}
	defer rows.Close()

	out := []domain.TransactionType{}
	for rows.Next() {
		var t domain.TransactionType
		var proIsrael, active int
		var created, updated int64
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &proIsrael, &active, &created, &updated); err != nil {
			return nil, ports.NewStoreError("transaction type", "scan", err)
		}
		t.ProIsrael = proIsrael != 0
		t.Active = active != 0
		t.CreatedAt = fromMillis(created)
		t.UpdatedAt = fromMillis(updated)
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpsertCommittee implements ports.ConfigAdmin. Inserting an ID that
// already has an active row adds a newer row; reads prefer it.
func (s *Store) UpsertCommittee(ctx context.Context, committeeID string, category domain.CommitteeCategory) (domain.Committee, error) {
	committeeID = strings.TrimSpace(committeeID)
	verr := domain.NewValidationError("committee")
	if committeeID == "" {
		verr.AddError("committee id is required")
	}
	if !category.Valid() {
		verr.AddError(fmt.Sprintf("unknown category %q", category))
	}
	if verr.HasErrors() {
		return domain.Committee{}, verr
	}

	now := time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO committees (committee_id, category, active, created_at, updated_at)
		 VALUES (?, ?, 1, ?, ?)`,
		committeeID, string(category), toMillis(now), toMillis(now))
	if err != nil {
		return domain.Committee{}, ports.NewStoreError("committee", "upsert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Committee{}, ports.NewStoreError("committee", "upsert", err)
	}
	return s.committeeByID(ctx, id)
}

// UpdateCommittee implements ports.ConfigAdmin.
func (s *Store) UpdateCommittee(ctx context.Context, id int64, update ports.CommitteeUpdate) (domain.Committee, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(time.Now().UTC())}
	if update.Category != nil {
		if !update.Category.Valid() {
			verr := domain.NewValidationError("committee")
			verr.AddError(fmt.Sprintf("unknown category %q", *update.Category))
			return domain.Committee{}, verr
		}
		sets = append(sets, "category = ?")
		args = append(args, string(*update.Category))
	}
	if update.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*update.Active))
	}
	args = append(args, id)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE committees SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Committee{}, ports.NewStoreError("committee", "update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Committee{}, ports.ErrNotFound
	}
	return s.committeeByID(ctx, id)
}

// DeactivateCommittee implements ports.ConfigAdmin.
func (s *Store) DeactivateCommittee(ctx context.Context, id int64) (domain.Committee, error) {
	inactive := false
	return s.UpdateCommittee(ctx, id, ports.CommitteeUpdate{Active: &inactive})
}

func (s *Store) committeeByID(ctx context.Context, id int64) (domain.Committee, error) {
	var c domain.Committee
	var active int
	var created, updated int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, committee_id, category, active, created_at, updated_at
		 FROM committees WHERE id = ?`, id).
		Scan(&c.ID, &c.CommitteeID, &c.Category, &active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Committee{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Committee{}, ports.NewStoreError("committee", "get", err)
	}
	c.Active = active != 0
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

// UpsertKeyword implements ports.ConfigAdmin.
func (s *Store) UpsertKeyword(ctx context.Context, term string, category domain.CommitteeCategory, description string) (domain.Keyword, error) {
	term = strings.TrimSpace(term)
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
	now := time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO keywords (term, category, description, active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		term, string(category), description, toMillis(now), toMillis(now))
	if err != nil {
		return domain.Keyword{}, ports.NewStoreError("keyword", "upsert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Keyword{}, ports.NewStoreError("keyword", "upsert", err)
	}
	return s.keywordByID(ctx, id)
}

// UpdateKeyword implements ports.ConfigAdmin.
func (s *Store) UpdateKeyword(ctx context.Context, id int64, update ports.KeywordUpdate) (domain.Keyword, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(time.Now().UTC())}
	if update.Term != nil {
		sets = append(sets, "term = ?")
		args = append(args, *update.Term)
	}
	if update.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, string(*update.Category))
	}
	if update.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*update.Active))
	}
	args = append(args, id)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE keywords SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.Keyword{}, ports.NewStoreError("keyword", "update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Keyword{}, ports.ErrNotFound
	}
	return s.keywordByID(ctx, id)
}

// DeactivateKeyword implements ports.ConfigAdmin.
func (s *Store) DeactivateKeyword(ctx context.Context, id int64) (domain.Keyword, error) {
	inactive := false
	return s.UpdateKeyword(ctx, id, ports.KeywordUpdate{Active: &inactive})
}

func (s *Store) keywordByID(ctx context.Context, id int64) (domain.Keyword, error) {
	var k domain.Keyword
	var active int
	var created, updated int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, term, category, description, active, created_at, updated_at
		 FROM keywords WHERE id = ?`, id).
		Scan(&k.ID, &k.Term, &k.Category, &k.Description, &active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Keyword{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Keyword{}, ports.NewStoreError("keyword", "get", err)
	}
	k.Active = active != 0
	k.CreatedAt = fromMillis(created)
	k.UpdatedAt = fromMillis(updated)
	return k, nil
}

// UpsertTransactionType implements ports.ConfigAdmin.
func (s *Store) UpsertTransactionType(ctx context.Context, code, name string, proIsrael bool) (domain.TransactionType, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		verr := domain.NewValidationError("transaction type")
		verr.AddError("code is required")
		return domain.TransactionType{}, verr
	}
	now := time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO transaction_types (code, name, pro_israel, active, created_at, updated_at)
		 VALUES (?, ?, ?, 1, ?, ?)`,
		code, name, boolToInt(proIsrael), toMillis(now), toMillis(now))
	if err != nil {
		return domain.TransactionType{}, ports.NewStoreError("transaction type", "upsert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.TransactionType{}, ports.NewStoreError("transaction type", "upsert", err)
	}
	return s.transactionTypeByID(ctx, id)
}

// UpdateTransactionType implements ports.ConfigAdmin.
func (s *Store) UpdateTransactionType(ctx context.Context, id int64, update ports.TransactionTypeUpdate) (domain.TransactionType, error) {
	sets := []string{"updated_at = ?"}
	args := []any{toMillis(time.Now().UTC())}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.ProIsrael != nil {
		sets = append(sets, "pro_israel = ?")
		args = append(args, boolToInt(*update.ProIsrael))
	}
	if update.Active != nil {
		sets = append(sets, "active = ?")
		args = append(args, boolToInt(*update.Active))
	}
	args = append(args, id)

	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE transaction_types SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return domain.TransactionType{}, ports.NewStoreError("transaction type", "update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.TransactionType{}, ports.ErrNotFound
	}
	return s.transactionTypeByID(ctx, id)
}

// DeactivateTransactionType implements ports.ConfigAdmin.
func (s *Store) DeactivateTransactionType(ctx context.Context, id int64) (domain.TransactionType, error) {
	inactive := false
	return s.UpdateTransactionType(ctx, id, ports.TransactionTypeUpdate{Active: &inactive})
}

func (s *Store) transactionTypeByID(ctx context.Context, id int64) (domain.TransactionType, error) {
	var t domain.TransactionType
	var proIsrael, active int
	var created, updated int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, code, name, pro_israel, active, created_at, updated_at
		 FROM transaction_types WHERE id = ?`, id).
		Scan(&t.ID, &t.Code, &t.Name, &proIsrael, &active, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TransactionType{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.TransactionType{}, ports.NewStoreError("transaction type", "get", err)
	}
	t.ProIsrael = proIsrael != 0
	t.Active = active != 0
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

// OverrideFor implements ports.OverrideStore.
func (s *Store) OverrideFor(ctx context.Context, personID string, cycles domain.CycleSelector) (*domain.ScoreOverride, error) {
	var o domain.ScoreOverride
	var created int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, person_id, cycle_scope, score, category, reason, created_by, created_at
		 FROM score_overrides WHERE person_id = ? AND cycle_scope = ?
		 ORDER BY id DESC LIMIT 1`,
		personID, cycles.String()).
		Scan(&o.ID, &o.PersonID, &o.CycleScope, &o.Score, &o.Category, &o.Reason, &o.CreatedBy, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ports.NewStoreError("override", "get", err)
	}
	o.CreatedAt = fromMillis(created)
	return &o, nil
}

// SetOverride implements ports.OverrideStore.
func (s *Store) SetOverride(ctx context.Context, override domain.ScoreOverride) (domain.ScoreOverride, error) {
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
	if verr.HasErrors() {
		return domain.ScoreOverride{}, verr
	}

	now := time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO score_overrides (person_id, cycle_scope, score, category, reason, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		override.PersonID, override.CycleScope, override.Score, override.Category,
		override.Reason, override.CreatedBy, toMillis(now))
	if err != nil {
		return domain.ScoreOverride{}, ports.NewStoreError("override", "set", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.ScoreOverride{}, ports.NewStoreError("override", "set", err)
	}
	override.ID = id
	override.CreatedAt = now
	return override, nil
}

// ClearOverride implements ports.OverrideStore.
func (s *Store) ClearOverride(ctx context.Context, id int64) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM score_overrides WHERE id = ?`, id)
	if err != nil {
		return ports.NewStoreError("override", "clear", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
