package storage

import (
	"database/sql"
	"fmt"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"portfolioRiskBot/internal/finance"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Begin() (*sql.Tx, error)
	Close() error
}

type Store struct{ db DB }

// OpenSQLite serializes access through a single connection; concurrent fetches
// would otherwise race on the write lock.
func OpenSQLite(dsn string) (DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func InitSchema(db DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS prices(
		symbol TEXT NOT NULL, interval TEXT NOT NULL, day TEXT NOT NULL, close REAL NOT NULL,
		PRIMARY KEY(symbol, interval, day)
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS price_windows(
		symbol TEXT NOT NULL, interval TEXT NOT NULL, start_day TEXT NOT NULL, end_day TEXT NOT NULL, fetched_at INTEGER NOT NULL,
		PRIMARY KEY(symbol, interval, start_day, end_day)
	)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// HasWindow reports whether the window was already fetched for symbol.
func (s *Store) HasWindow(symbol string, interval finance.Interval, start, end time.Time) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM price_windows WHERE symbol=? AND interval=? AND start_day=? AND end_day=?`,
		symbol, string(interval), dayKey(start), dayKey(end)).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SaveWindow stores the series points and records the window as fetched, in one transaction.
func (s *Store) SaveWindow(series finance.PriceSeries, interval finance.Interval, start, end time.Time, fetchedAt int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	for _, p := range series.Points {
		if _, err := tx.Exec(`INSERT OR REPLACE INTO prices(symbol,interval,day,close) VALUES(?,?,?,?)`,
			series.Asset, string(interval), dayKey(p.Date), p.Close); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save %s price: %w", series.Asset, err)
		}
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO price_windows(symbol,interval,start_day,end_day,fetched_at) VALUES(?,?,?,?,?)`,
		series.Asset, string(interval), dayKey(start), dayKey(end), fetchedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save %s window: %w", series.Asset, err)
	}
	return tx.Commit()
}

// LoadPrices returns the stored closes of symbol in [start, end), oldest first.
func (s *Store) LoadPrices(symbol string, interval finance.Interval, start, end time.Time) (finance.PriceSeries, error) {
	rows, err := s.db.Query(`SELECT day, close FROM prices WHERE symbol=? AND interval=? AND day>=? AND day<? ORDER BY day ASC`,
		symbol, string(interval), dayKey(start), dayKey(end))
	if err != nil {
		return finance.PriceSeries{}, err
	}
	defer rows.Close()

	out := finance.PriceSeries{Asset: symbol}
	for rows.Next() {
		var d string
		var c float64
		if err := rows.Scan(&d, &c); err != nil {
			return finance.PriceSeries{}, err
		}
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return finance.PriceSeries{}, fmt.Errorf("bad stored day %q for %s: %w", d, symbol, err)
		}
		out.Points = append(out.Points, finance.PricePoint{Date: t, Close: c})
	}
	return out, rows.Err()
}

func dayKey(t time.Time) string { return finance.Day(t).Format(time.DateOnly) }
