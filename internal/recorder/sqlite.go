package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists build history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS metadata_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			record_count INTEGER,
			path         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metadata_runs_run ON metadata_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS instruments (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			position       INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			name           TEXT,
			fund_family    TEXT,
			provider       TEXT,
			category       TEXT,
			inception_date TEXT,
			segment        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instruments_run ON instruments(run_id)`,

		`CREATE TABLE IF NOT EXISTS price_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id       TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			row_count    INTEGER,
			col_count    INTEGER,
			first_date   TEXT,
			last_date    TEXT,
			csv_path     TEXT,
			parquet_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_runs_run ON price_runs(run_id)`,

		`CREATE TABLE IF NOT EXISTS name_fallbacks (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id  TEXT NOT NULL,
			ticker  TEXT NOT NULL,
			reason  TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_name_fallbacks_run ON name_fallbacks(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordMetadata(run *MetadataRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO metadata_runs (run_id, timestamp, record_count, path) VALUES (?,?,?,?)`,
		run.RunID, time.Now().Unix(), len(run.Records), run.Path,
	); err != nil {
		return err
	}
	for i, rec := range run.Records {
		if _, err := tx.Exec(`INSERT INTO instruments
			(run_id, position, ticker, name, fund_family, provider, category, inception_date, segment)
			VALUES (?,?,?,?,?,?,?,?,?)`,
			run.RunID, i, rec.Ticker, rec.Name, rec.FundFamily, rec.Provider,
			rec.Category, rec.InceptionDate, rec.Segment,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordPrices(run *PriceRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO price_runs
		(run_id, timestamp, row_count, col_count, first_date, last_date, csv_path, parquet_path)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.RunID, time.Now().Unix(), run.Rows, run.Columns,
		run.FirstDate, run.LastDate, run.CSVPath, run.ParquetPath,
	); err != nil {
		return err
	}
	for _, fb := range run.Fallbacks {
		if _, err := tx.Exec(`INSERT INTO name_fallbacks (run_id, ticker, reason) VALUES (?,?,?)`,
			run.RunID, fb.Ticker, fb.Reason,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
