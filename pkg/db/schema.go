package db

// Schema history for the trackerdb component. Steps are additive only:
// existing tables, columns, and indexes are never dropped or renamed.

// SchemaV1 creates the base collections (meta singleton, projects, decks,
// matches) and their lookup indexes.
const SchemaV1 = `
CREATE TABLE IF NOT EXISTS mdtrack_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS meta (
    id TEXT PRIMARY KEY,
    schema_version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS projects (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    period_start TEXT,
    period_end TEXT,
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects (updated_at);

CREATE TABLE IF NOT EXISTS decks (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    color VARCHAR(32),
    labels TEXT NOT NULL DEFAULT '[]',
    favorite BOOLEAN NOT NULL DEFAULT FALSE,
    note TEXT,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_decks_name ON decks (name);

CREATE TABLE IF NOT EXISTS matches (
    id UUID PRIMARY KEY,
    project_id UUID NOT NULL,
    played_at TEXT NOT NULL,
    result VARCHAR(8) NOT NULL,
    turn_order VARCHAR(8) NOT NULL,
    coin_method VARCHAR(16) NOT NULL DEFAULT 'coin',
    coin_value VARCHAR(8),
    rating REAL,
    my_deck_id UUID,
    my_deck_name VARCHAR(256) NOT NULL,
    op_deck_name VARCHAR(60) NOT NULL,
    note TEXT,
    deleted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_matches_project ON matches (project_id);
CREATE INDEX IF NOT EXISTS idx_matches_played_at ON matches (played_at);
CREATE INDEX IF NOT EXISTS idx_matches_my_deck_name ON matches (my_deck_name);
CREATE INDEX IF NOT EXISTS idx_matches_op_deck_name ON matches (op_deck_name);
CREATE INDEX IF NOT EXISTS idx_matches_result ON matches (result);
CREATE INDEX IF NOT EXISTS idx_matches_turn_order ON matches (turn_order);
`

// SchemaV2 adds tags, the per-match ordered tag references, the flattened
// tag-name lookup table (the relational form of a multi-valued index over
// the derived tag-name set of each match), and the key-value preference
// store.
const SchemaV2 = `
CREATE TABLE IF NOT EXISTS tags (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL,
    color VARCHAR(32),
    description TEXT,
    created_at REAL DEFAULT (unixepoch()),
    updated_at REAL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_tags_name ON tags (name);

CREATE TABLE IF NOT EXISTS match_tags (
    match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    tag_id UUID,
    tag_name VARCHAR(256) NOT NULL,
    PRIMARY KEY (match_id, position)
);

CREATE TABLE IF NOT EXISTS match_tag_names (
    match_id UUID NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
    tag_name VARCHAR(256) NOT NULL,
    PRIMARY KEY (match_id, tag_name)
);

CREATE INDEX IF NOT EXISTS idx_match_tag_names_tag_name ON match_tag_names (tag_name);

CREATE TABLE IF NOT EXISTS preferences (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at REAL DEFAULT (unixepoch())
);
`
