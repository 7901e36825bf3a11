package storage

// Timestamps are stored as unix seconds so due-date comparisons are plain
// integer comparisons.
const schema = `
-- 'projects' group flashcards that are studied together.
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL
);

-- 'sources' tracks where imported cards come from, a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    project_id TEXT NOT NULL,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned INTEGER,

    FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE
);

-- 'flashcards' stores card content together with its scheduling state.
CREATE TABLE IF NOT EXISTS flashcards (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    front TEXT NOT NULL,
    back TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL,
    source_id INTEGER,
    source_hash TEXT NOT NULL DEFAULT '', -- hash of the parsed draft, kept across edits
    stability REAL NOT NULL DEFAULT 0,
    difficulty REAL NOT NULL DEFAULT 0,
    due_at INTEGER NOT NULL,
    last_review INTEGER,
    state INTEGER NOT NULL DEFAULT 0, -- 0: New, 2: Review
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY(project_id) REFERENCES projects(id) ON DELETE CASCADE,
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_flashcards_due ON flashcards(project_id, due_at);
CREATE INDEX IF NOT EXISTS idx_flashcards_source ON flashcards(source_id, source_hash);

-- 'review_logs' keeps one row per submitted rating.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    flashcard_id TEXT NOT NULL,
    rating TEXT NOT NULL,
    reviewed_at INTEGER NOT NULL,
    stability REAL NOT NULL,
    due_at INTEGER NOT NULL,

    FOREIGN KEY(flashcard_id) REFERENCES flashcards(id) ON DELETE CASCADE
);
`
