// Package database wraps the SQLite connection used as the
// system's single embedded transactional store (spec §3). Grounded
// on the teacher's internal/database/db.go: pure-Go driver, WAL mode,
// a thin *sql.DB wrapper, explicit Begin/Exec/Query passthroughs.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// DB wraps the database connection.
type DB struct {
	conn *sql.DB
	path string
}

// New opens (creating if necessary) the SQLite database at dbPath.
func New(dbPath string) (*DB, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the underlying *sql.DB.
func (db *DB) Conn() *sql.DB { return db.conn }

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) { return db.conn.Begin() }

// Exec executes a query without returning rows.
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows.
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row.
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// Migrate creates every table and index the data model (spec §3)
// needs, if they do not already exist.
func (db *DB) Migrate() error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		kind TEXT NOT NULL,
		direction TEXT NOT NULL,
		strength REAL NOT NULL,
		confidence REAL NOT NULL,
		technical_score REAL NOT NULL,
		sentiment_score REAL NOT NULL,
		ml_score REAL NOT NULL,
		macro_score REAL NOT NULL,
		has_macro INTEGER NOT NULL,
		macro_regime TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		return_5d REAL,
		return_10d REAL,
		correct INTEGER,
		outcome_checked_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_symbol_created ON signals(symbol, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_pending_eval ON signals(outcome_checked_at, created_at)`,

	`CREATE TABLE IF NOT EXISTS cache_entries (
		class TEXT NOT NULL,
		symbol TEXT NOT NULL,
		sub_key TEXT NOT NULL DEFAULT '',
		payload BLOB NOT NULL,
		fetched_at DATETIME NOT NULL,
		PRIMARY KEY (class, symbol, sub_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cache_class_symbol ON cache_entries(class, symbol)`,

	`CREATE TABLE IF NOT EXISTS price_bars (
		symbol TEXT NOT NULL,
		asset_class TEXT NOT NULL,
		date DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (symbol, date, asset_class)
	)`,

	`CREATE TABLE IF NOT EXISTS holdings (
		symbol TEXT PRIMARY KEY,
		asset_class TEXT NOT NULL,
		quantity REAL NOT NULL,
		avg_cost REAL NOT NULL,
		sector TEXT,
		stop_loss REAL
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		note TEXT,
		executed_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS paper_positions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		entry_date DATETIME NOT NULL,
		entry_price REAL NOT NULL,
		quantity REAL NOT NULL,
		stop_loss REAL NOT NULL,
		trailing_stop REAL NOT NULL,
		highest_price REAL NOT NULL,
		status TEXT NOT NULL,
		opened_at DATETIME NOT NULL,
		closed_at DATETIME,
		close_price REAL,
		realized_pnl REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_paper_positions_symbol_status ON paper_positions(symbol, status)`,

	`CREATE TABLE IF NOT EXISTS paper_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		price REAL NOT NULL,
		quantity REAL NOT NULL,
		pnl REAL NOT NULL,
		reason TEXT,
		executed_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS backtest_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		total_return REAL NOT NULL,
		annual_return REAL NOT NULL,
		sharpe REAL NOT NULL,
		sortino REAL NOT NULL,
		calmar REAL NOT NULL,
		max_drawdown REAL NOT NULL,
		var95 REAL NOT NULL,
		cvar95 REAL NOT NULL,
		win_rate REAL NOT NULL,
		trade_count INTEGER NOT NULL,
		equity_curve_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS risk_alerts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		message TEXT NOT NULL,
		symbol TEXT,
		created_at DATETIME NOT NULL,
		acknowledged INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		name TEXT PRIMARY KEY,
		value_json TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}
