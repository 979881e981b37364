// Package recordstore archives fetched account records so past months
// stay queryable after the portal stops serving them.
package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens (or creates) a sqlite archive at path and applies the
// schema.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// Record is one archived row. Detail holds the category-specific
// fields as JSON so every record type shares one table.
type Record struct {
	OccurredAt time.Time
	Detail     json.RawMessage
}

type PushRequest struct {
	Account   string
	Category  string
	YearMonth string
	Records   []Record
}

// Push replaces the archived rows of one (account, category, month)
// with the given ones. Re-fetching a month is the usual way to refresh
// it, so replacement beats deduplication.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM records WHERE account = ? AND category = ? AND year_month = ?`,
		req.Account, req.Category, req.YearMonth,
	)
	if err != nil {
		return err
	}
	for _, record := range req.Records {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (account, category, year_month, occurred_at, detail)
			 VALUES (?, ?, ?, ?, ?)`,
			req.Account, req.Category, req.YearMonth,
			record.OccurredAt.Unix(), string(record.Detail),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

type QueryRequest struct {
	Account  string
	Category string
	// optional; empty matches every archived month
	YearMonth string
}

// Query returns archived rows oldest first.
func (s Store) Query(ctx context.Context, req QueryRequest) ([]Record, error) {
	query := `SELECT occurred_at, detail FROM records
		WHERE account = ? AND category = ?`
	args := []any{req.Account, req.Category}
	if req.YearMonth != "" {
		query += ` AND year_month = ?`
		args = append(args, req.YearMonth)
	}
	query += ` ORDER BY occurred_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var occurredAt int64
		var detail string
		err = rows.Scan(&occurredAt, &detail)
		if err != nil {
			return nil, err
		}
		records = append(records, Record{
			OccurredAt: time.Unix(occurredAt, 0),
			Detail:     json.RawMessage(detail),
		})
	}
	return records, rows.Err()
}

// Months lists the archived months of one (account, category), oldest
// first.
func (s Store) Months(ctx context.Context, account, category string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT year_month FROM records
		 WHERE account = ? AND category = ? ORDER BY year_month ASC`,
		account, category,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []string
	for rows.Next() {
		var month string
		err = rows.Scan(&month)
		if err != nil {
			return nil, err
		}
		months = append(months, month)
	}
	return months, rows.Err()
}
