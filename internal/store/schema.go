package store

// Schema is applied on every Open; all statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS qa_pairs (
	id              TEXT PRIMARY KEY,
	question        TEXT NOT NULL,
	answer          TEXT NOT NULL,
	source_document TEXT NOT NULL,
	page_number     INTEGER NOT NULL,
	created_at      TEXT NOT NULL,
	category        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_qa_pairs_category ON qa_pairs(category);
CREATE INDEX IF NOT EXISTS idx_qa_pairs_source ON qa_pairs(source_document);

CREATE TABLE IF NOT EXISTS conversations (
	conversation_id TEXT PRIMARY KEY,
	topic           TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	content         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS image_text_pairs (
	pair_id          TEXT PRIMARY KEY,
	image_path       TEXT NOT NULL,
	image_type       TEXT NOT NULL,
	caption_short    TEXT NOT NULL,
	caption_detailed TEXT NOT NULL,
	source_document  TEXT NOT NULL,
	page_number      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL,
	status        TEXT NOT NULL,
	documents     INTEGER NOT NULL DEFAULT 0,
	pages         INTEGER NOT NULL DEFAULT 0,
	facts         INTEGER NOT NULL DEFAULT 0,
	conversations INTEGER NOT NULL DEFAULT 0,
	image_pairs   INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
`
