// Package storage persists the client-side order journal in SQLite. The
// journal is an audit trail of every submission attempt and its outcome;
// the order service remains the authority on fills.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/domain"
)

// Journal records order submissions and their results.
type Journal struct {
	db *sql.DB
}

// JournalEntry is one row of the audit trail.
type JournalEntry struct {
	ClientOrderID string
	ServerOrderID string
	Ticker        string
	Side          domain.Side
	Kind          domain.Kind
	PriceMicros   int64
	Qty           int64
	Status        domain.OrderStatus
	Immediate     bool
	Reason        string
	CreatedAt     int64
	UpdatedAt     int64
}

// OpenJournal opens (or creates) the journal database with WAL mode on.
func OpenJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			client_order_id TEXT PRIMARY KEY,
			server_order_id TEXT NOT NULL DEFAULT '',
			ticker TEXT NOT NULL,
			side TEXT NOT NULL,
			kind TEXT NOT NULL,
			price_micros INTEGER NOT NULL,
			qty INTEGER NOT NULL,
			status TEXT NOT NULL,
			immediate INTEGER NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &Journal{db: db}, nil
}

// RecordSubmitted writes the initial row for an order at submission time.
func (j *Journal) RecordSubmitted(ctx context.Context, order domain.Order, outcome domain.OrderOutcome) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO orders
			(client_order_id, ticker, side, kind, price_micros, qty, status, immediate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Ticker, string(order.Side), string(order.Kind),
		int64(outcome.ResolvedPriceMicros), int64(order.Qty),
		string(domain.StatusSubmitted), boolInt(outcome.WillExecuteImmediately),
		int64(order.CreatedAt), int64(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// RecordAccepted marks the order accepted and stores the service's ID.
func (j *Journal) RecordAccepted(ctx context.Context, clientOrderID, serverOrderID string, ts int64) error {
	return j.updateStatus(ctx, clientOrderID, domain.StatusAccepted, serverOrderID, "", ts)
}

// RecordReconciled marks the post-order account refresh complete.
func (j *Journal) RecordReconciled(ctx context.Context, clientOrderID string, ts int64) error {
	return j.updateStatus(ctx, clientOrderID, domain.StatusReconciled, "", "", ts)
}

// RecordRejected marks the order rejected with a reason.
func (j *Journal) RecordRejected(ctx context.Context, clientOrderID, reason string, ts int64) error {
	return j.updateStatus(ctx, clientOrderID, domain.StatusRejected, "", reason, ts)
}

func (j *Journal) updateStatus(ctx context.Context, clientOrderID string, status domain.OrderStatus, serverOrderID, reason string, ts int64) error {
	res, err := j.db.ExecContext(ctx, `
		UPDATE orders SET
			status = ?,
			server_order_id = CASE WHEN ? != '' THEN ? ELSE server_order_id END,
			reason = CASE WHEN ? != '' THEN ? ELSE reason END,
			updated_at = ?
		WHERE client_order_id = ?`,
		string(status), serverOrderID, serverOrderID, reason, reason, ts, clientOrderID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", clientOrderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %s not found in journal", clientOrderID)
	}
	return nil
}

// Get returns one journal entry by client order ID.
func (j *Journal) Get(ctx context.Context, clientOrderID string) (JournalEntry, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT client_order_id, server_order_id, ticker, side, kind,
		       price_micros, qty, status, immediate, reason, created_at, updated_at
		FROM orders WHERE client_order_id = ?`, clientOrderID)
	return scanEntry(row)
}

// ListRecent returns the newest entries first, up to limit.
func (j *Journal) ListRecent(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT client_order_id, server_order_id, ticker, side, kind,
		       price_micros, qty, status, immediate, reason, created_at, updated_at
		FROM orders ORDER BY created_at DESC, client_order_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (JournalEntry, error) {
	var e JournalEntry
	var side, kind, status string
	var immediate int
	err := row.Scan(&e.ClientOrderID, &e.ServerOrderID, &e.Ticker, &side, &kind,
		&e.PriceMicros, &e.Qty, &status, &immediate, &e.Reason, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return JournalEntry{}, err
	}
	e.Side = domain.Side(side)
	e.Kind = domain.Kind(kind)
	e.Status = domain.OrderStatus(status)
	e.Immediate = immediate != 0
	return e, nil
}

// UpsertMetadata saves a key-value pair, e.g. the last seen favorites
// revision.
func (j *Journal) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata returns the stored value for key, empty when absent.
func (j *Journal) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := j.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
