package store

// DDL for the two SQL backends. Logical schema is identical; only type
// names and placeholder syntax differ. The UNIQUE constraint on
// canonical_number is the authority for identity dedup (never a
// caller-side scan), and the FK keeps the ledger attached to its number.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS numbers (
	id               TEXT PRIMARY KEY,
	canonical_number TEXT NOT NULL UNIQUE,
	category         TEXT NOT NULL DEFAULT 'Unknown',
	last_reported_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS reports (
	id              TEXT PRIMARY KEY,
	number_id       TEXT NOT NULL REFERENCES numbers(id),
	report_type     TEXT NOT NULL,
	channel         TEXT NOT NULL,
	message_excerpt TEXT,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_number_created
	ON reports(number_id, created_at);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS numbers (
	id               UUID PRIMARY KEY,
	canonical_number TEXT NOT NULL UNIQUE,
	category         TEXT NOT NULL DEFAULT 'Unknown',
	last_reported_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS reports (
	id              UUID PRIMARY KEY,
	number_id       UUID NOT NULL REFERENCES numbers(id),
	report_type     TEXT NOT NULL,
	channel         TEXT NOT NULL,
	message_excerpt TEXT,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_number_created
	ON reports(number_id, created_at);
`
