package storage

const schema = `
-- The 'kv' table holds every persisted value: the custom card set and
-- user preferences, each under its own key.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL
);
`
