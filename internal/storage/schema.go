package storage

const schema = `
PRAGMA foreign_keys = ON;

-- The 'sources' table tracks where markdown cards come from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'records' table stores captured web page content.
CREATE TABLE IF NOT EXISTS records (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    domain TEXT NOT NULL,
    captured_at DATETIME NOT NULL,
    text_hash TEXT NOT NULL,
    text_preview TEXT,
    full_text TEXT,
    summary TEXT,
    key_points TEXT, -- JSON array
    tags TEXT,       -- JSON array
    status TEXT NOT NULL DEFAULT 'created'
);
CREATE INDEX IF NOT EXISTS idx_records_url ON records(url);
CREATE INDEX IF NOT EXISTS idx_records_text_hash ON records(text_hash);
CREATE INDEX IF NOT EXISTS idx_records_domain ON records(domain);

-- The 'cards' table stores knowledge cards and their review schedule.
-- A NULL ease_factor means the card has no review state yet.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    record_id TEXT,
    title TEXT NOT NULL,
    summary TEXT,
    key_points TEXT,     -- JSON array
    terms TEXT,          -- JSON array
    misconceptions TEXT, -- JSON array
    self_quiz TEXT,      -- JSON array
    content_hash TEXT,
    source_id INTEGER,
    created_at DATETIME NOT NULL,
    last_reviewed_at DATETIME,
    next_review_at DATETIME,
    review_count INTEGER,
    ease_factor REAL,
    interval_days INTEGER,

    FOREIGN KEY(record_id) REFERENCES records(id) ON DELETE SET NULL,
    UNIQUE(source_id, content_hash),
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);

-- The 'review_logs' table is the history of review events.
CREATE TABLE IF NOT EXISTS review_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id TEXT NOT NULL,
    reviewed_at DATETIME NOT NULL,
    quality INTEGER NOT NULL,
    interval_days INTEGER NOT NULL,

    FOREIGN KEY(card_id) REFERENCES cards(id) ON DELETE CASCADE
);

-- The 'plans' table stores generated review plans.
CREATE TABLE IF NOT EXISTS plans (
    id TEXT PRIMARY KEY,
    date TEXT NOT NULL,
    items TEXT NOT NULL, -- JSON array
    created_at DATETIME NOT NULL
);
`
