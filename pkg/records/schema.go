package records

// Schema contains the SQL statements to create the record database schema.
const Schema = `
-- Files table: one row per uploaded file
CREATE TABLE IF NOT EXISTS files (
    id            TEXT PRIMARY KEY,
    stored_name   TEXT NOT NULL,
    storage_path  TEXT NOT NULL,
    original_name TEXT NOT NULL DEFAULT '',
    size          INTEGER NOT NULL,
    sender        TEXT NOT NULL DEFAULT '',
    receiver      TEXT NOT NULL DEFAULT '',
    notified      BOOLEAN NOT NULL DEFAULT FALSE,
    notify_count  INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_created ON files(created_at);
`

const recordColumns = `id, stored_name, storage_path, original_name, size, sender, receiver, notified, notify_count, created_at, updated_at`
