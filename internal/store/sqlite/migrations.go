package sqlite

// migrations upgrade the journal schema in order. PRAGMA user_version holds
// the number already applied; append new steps, never edit old ones.
var migrations = []string{
	// 1: runs and their per-sender outcomes.
	`
CREATE TABLE runs (
    id          TEXT PRIMARY KEY,
    command     TEXT NOT NULL,
    query       TEXT,
    sampled     INTEGER NOT NULL DEFAULT 0,
    senders     INTEGER NOT NULL DEFAULT 0,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME
);

CREATE TABLE mutations (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    sender      TEXT NOT NULL,
    target      TEXT NOT NULL,
    found       INTEGER NOT NULL DEFAULT 0,
    mutated     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0,
    error       TEXT,
    at          DATETIME NOT NULL
);

CREATE INDEX idx_mutations_run ON mutations(run_id);
CREATE INDEX idx_mutations_sender ON mutations(sender);
CREATE INDEX idx_mutations_at ON mutations(at DESC);
`,
}
