package runstore

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;

-- One row per extraction request.
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    doc_hash TEXT NOT NULL,
    filename TEXT NOT NULL,
    pages TEXT NOT NULL DEFAULT '',
    steps TEXT NOT NULL,
    results TEXT NOT NULL,
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL       -- unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_runs_doc_hash ON runs(doc_hash);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
