package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/passionpotato/teslawebsite/internal/model"
)

// SQLiteRecorder persists refresh history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (external tools can
	// read while the dashboard writes).
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
		`CREATE TABLE IF NOT EXISTS quote_snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbol    TEXT,
			price     REAL,
			period    TEXT,
			interval  TEXT,
			note      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_ts ON quote_snapshots(timestamp)`,

		`CREATE TABLE IF NOT EXISTS holdings_snapshots (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			institution  TEXT,
			cik          TEXT,
			report_date  TEXT,
			shares       INTEGER,
			value_usd    INTEGER,
			shares_delta INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_holdings_ts ON holdings_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuote(snap *QuoteSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO quote_snapshots
		(timestamp, symbol, price, period, interval, note)
		VALUES (?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Symbol, snap.Price, snap.Period, snap.Interval, snap.Note,
	)
	return err
}

func (r *SQLiteRecorder) RecordHoldings(rows []model.HoldingsRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	for _, row := range rows {
		var delta sql.NullInt64
		if row.SharesDelta != nil {
			delta = sql.NullInt64{Int64: *row.SharesDelta, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO holdings_snapshots
			(timestamp, institution, cik, report_date, shares, value_usd, shares_delta)
			VALUES (?,?,?,?,?,?,?)`,
			now, row.Institution, row.CIK, row.ReportDate, row.Shares, row.ValueUSD, delta,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
