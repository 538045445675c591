// Package store provides a SQLite-backed cache for parsed sales datasets.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/salesdash/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache provides SQLite-backed dataset caching.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fingerprint identifies one parse of one source file. A cached dataset is
// only reused when all three fields match.
type Fingerprint struct {
	MtimeNs   int64
	SizeBytes int64
	Settings  string // parse settings the rows were derived with
}

// Tracked describes a cached source file.
type Tracked struct {
	Path string
	Fingerprint
	Columns  []string
	RowCount int
	ParsedAt time.Time
}

// GetTracked returns the cache entry for path, if any.
func (c *Cache) GetTracked(path string) (Tracked, bool, error) {
	var t Tracked
	var cols, parsedAt string
	err := c.db.QueryRow(`SELECT file_path, mtime_ns, size_bytes, settings, columns, row_count, parsed_at
		FROM source_files WHERE file_path = ?`, path).
		Scan(&t.Path, &t.MtimeNs, &t.SizeBytes, &t.Settings, &cols, &t.RowCount, &parsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Tracked{}, false, nil
	}
	if err != nil {
		return Tracked{}, false, err
	}

	if err := json.Unmarshal([]byte(cols), &t.Columns); err != nil {
		return Tracked{}, false, fmt.Errorf("decoding columns: %w", err)
	}
	t.ParsedAt, _ = time.Parse(time.RFC3339, parsedAt)
	return t, true, nil
}

// SaveDataset replaces the cached rows for path.
func (c *Cache) SaveDataset(path string, fp Fingerprint, columns []string, rows []model.Transaction) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	cols, err := json.Marshal(columns)
	if err != nil {
		return err
	}

	// Cascades to the old transactions.
	if _, err := tx.Exec("DELETE FROM source_files WHERE file_path = ?", path); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.Exec(`INSERT INTO source_files
		(file_path, mtime_ns, size_bytes, settings, columns, row_count, parsed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		path, fp.MtimeNs, fp.SizeBytes, fp.Settings, string(cols), len(rows), now,
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO transactions
		(file_path, row_idx, line, date, category, business, quantity,
		 unit_price, sales_value, month_year, period, fields)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range rows {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return err
		}
		_, err = stmt.Exec(
			path, i, r.Line,
			r.Date.UTC().Format(time.RFC3339Nano), r.Category, r.Business, r.Quantity,
			r.UnitPrice, r.SalesValue, r.MonthYear,
			r.Period.UTC().Format(time.RFC3339), string(fields),
		)
		if err != nil {
			return fmt.Errorf("caching row %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadDataset reads the cached rows for path in source order.
func (c *Cache) LoadDataset(path string) ([]model.Transaction, error) {
	rows, err := c.db.Query(`SELECT
		line, date, category, business, quantity,
		unit_price, sales_value, month_year, period, fields
		FROM transactions WHERE file_path = ? ORDER BY row_idx`, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []model.Transaction
	for rows.Next() {
		var r model.Transaction
		var dateStr, periodStr, fields string

		err := rows.Scan(
			&r.Line, &dateStr, &r.Category, &r.Business, &r.Quantity,
			&r.UnitPrice, &r.SalesValue, &r.MonthYear, &periodStr, &fields,
		)
		if err != nil {
			return nil, err
		}

		if r.Date, err = time.Parse(time.RFC3339Nano, dateStr); err != nil {
			return nil, fmt.Errorf("decoding date: %w", err)
		}
		if r.Period, err = time.Parse(time.RFC3339, periodStr); err != nil {
			return nil, fmt.Errorf("decoding period: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
			return nil, fmt.Errorf("decoding fields: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteFile removes a cached file and its rows.
func (c *Cache) DeleteFile(path string) error {
	_, err := c.db.Exec("DELETE FROM source_files WHERE file_path = ?", path)
	return err
}

// FileCount returns the number of cached source files.
func (c *Cache) FileCount() (int, error) {
	var count int
	err := c.db.QueryRow("SELECT COUNT(*) FROM source_files").Scan(&count)
	return count, err
}
