package sqlite

// schema creates the reference tables owned by the configuration store
// and the ledger-side tables the engine reads. Ledger tables are
// populated by the out-of-scope bulk loader; the engine never writes
// them.
const schema = `
CREATE TABLE IF NOT EXISTS committees (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  committee_id TEXT NOT NULL,
  category     TEXT NOT NULL,
  active       INTEGER NOT NULL DEFAULT 1,
  created_at   INTEGER NOT NULL,
  updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_committees_active ON committees (active, committee_id);

CREATE TABLE IF NOT EXISTS keywords (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  term        TEXT NOT NULL,
  category    TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  active      INTEGER NOT NULL DEFAULT 1,
  created_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transaction_types (
  id         INTEGER PRIMARY KEY AUTOINCREMENT,
  code       TEXT NOT NULL,
  name       TEXT NOT NULL,
  pro_israel INTEGER NOT NULL DEFAULT 1,
  active     INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS score_overrides (
  id          INTEGER PRIMARY KEY AUTOINCREMENT,
  person_id   TEXT NOT NULL,
  cycle_scope TEXT NOT NULL,
  score       REAL NOT NULL,
  category    TEXT NOT NULL DEFAULT '',
  reason      TEXT NOT NULL,
  created_by  TEXT NOT NULL,
  created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_overrides_person ON score_overrides (person_id, cycle_scope);

CREATE TABLE IF NOT EXISTS candidates (
  person_id    TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  name         TEXT NOT NULL,
  cycle        INTEGER NOT NULL,
  party        TEXT NOT NULL DEFAULT '',
  office       TEXT NOT NULL DEFAULT '',
  state        TEXT NOT NULL DEFAULT '',
  district     TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (person_id, cycle)
);

CREATE TABLE IF NOT EXISTS candidate_totals (
  person_id      TEXT NOT NULL,
  cycle          INTEGER NOT NULL,
  total_receipts TEXT NOT NULL DEFAULT '0',
  PRIMARY KEY (person_id, cycle)
);

CREATE TABLE IF NOT EXISTS committee_names (
  committee_id TEXT PRIMARY KEY,
  name         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contributions (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  committee_id TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  amount       TEXT NOT NULL,
  cycle        INTEGER NOT NULL,
  type_code    TEXT NOT NULL DEFAULT '',
  memo_code    TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_contributions_committee ON contributions (committee_id, cycle);

CREATE TABLE IF NOT EXISTS transfers (
  id                INTEGER PRIMARY KEY AUTOINCREMENT,
  from_committee_id TEXT NOT NULL,
  to_committee_id   TEXT NOT NULL,
  amount            TEXT NOT NULL,
  cycle             INTEGER NOT NULL,
  type_code         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_transfers_from ON transfers (from_committee_id, cycle);

CREATE TABLE IF NOT EXISTS expenditures (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  committee_id TEXT NOT NULL,
  candidate_id TEXT NOT NULL,
  amount       TEXT NOT NULL,
  cycle        INTEGER NOT NULL,
  direction    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_expenditures_committee ON expenditures (committee_id, cycle);

CREATE TABLE IF NOT EXISTS conduit_contributions (
  id                   INTEGER PRIMARY KEY AUTOINCREMENT,
  conduit_committee_id TEXT NOT NULL,
  candidate_id         TEXT NOT NULL,
  amount               TEXT NOT NULL,
  cycle                INTEGER NOT NULL,
  memo_code            TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_conduit_committee ON conduit_contributions (conduit_committee_id, cycle);
`
