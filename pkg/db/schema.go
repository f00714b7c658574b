package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per ingestion run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    listing_url TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    phase TEXT NOT NULL,
    discovered INTEGER DEFAULT 0,
    skipped INTEGER DEFAULT 0,
    ingested INTEGER DEFAULT 0,
    failed INTEGER DEFAULT 0,
    pruned INTEGER DEFAULT 0,
    index_size INTEGER DEFAULT 0,
    committed BOOLEAN DEFAULT 0,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);

-- Fetch attempts: every HTTP retrieval made during a run
CREATE TABLE IF NOT EXISTS fetch_attempts (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    document_id TEXT,
    url TEXT NOT NULL,
    accessed_at TIMESTAMP NOT NULL,
    status_code INTEGER,
    error_type TEXT,
    success BOOLEAN NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_attempts_run ON fetch_attempts(run_id);
CREATE INDEX IF NOT EXISTS idx_attempts_url ON fetch_attempts(url);
CREATE INDEX IF NOT EXISTS idx_attempts_success ON fetch_attempts(success);

-- Enrichments: classifier output per essay, payload stored as JSON
CREATE TABLE IF NOT EXISTS enrichments (
    document_id TEXT PRIMARY KEY,
    classifier TEXT NOT NULL,
    model TEXT,
    payload TEXT NOT NULL,
    enriched_at TIMESTAMP NOT NULL
);
`
