package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS source_files (
    file_path            TEXT PRIMARY KEY,
    mtime_ns             INTEGER NOT NULL,
    size_bytes           INTEGER NOT NULL,
    settings             TEXT NOT NULL,
    columns              TEXT NOT NULL,
    row_count            INTEGER NOT NULL,
    parsed_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    file_path            TEXT NOT NULL REFERENCES source_files(file_path) ON DELETE CASCADE,
    row_idx              INTEGER NOT NULL,
    line                 INTEGER NOT NULL,
    date                 TEXT NOT NULL,
    category             TEXT NOT NULL,
    business             TEXT NOT NULL,
    quantity             INTEGER NOT NULL,
    unit_price           TEXT NOT NULL,
    sales_value          TEXT NOT NULL,
    month_year           TEXT NOT NULL,
    period               TEXT NOT NULL,
    fields               TEXT NOT NULL,
    PRIMARY KEY (file_path, row_idx)
);
`
