// Package store persists reconciled analytics data in SQLite so the
// cumulative state survives restarts.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"evelis/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// Store wraps the SQLite database holding the reconciled snapshot.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database at path and ensures the schema exists.
func New(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// modernc sqlite does not support concurrent writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS master_index (
			code        TEXT PRIMARY KEY,
			category    TEXT NOT NULL,
			reference   TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sales_records (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			date     TEXT,
			store    TEXT NOT NULL DEFAULT '',
			product  TEXT NOT NULL DEFAULT '',
			quantity REAL NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			sku      TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_records (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			sku     TEXT NOT NULL DEFAULT '',
			product TEXT NOT NULL DEFAULT '',
			stock   REAL NOT NULL,
			store   TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_date ON sales_records(date)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_sku ON sales_records(sku)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// SaveSnapshot replaces the persisted snapshot with the given state in one
// transaction.
func (s *Store) SaveSnapshot(ctx context.Context, index domain.MasterIndex, sales []domain.SalesRecord, inventory []domain.InventoryRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"master_index", "sales_records", "inventory_records"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	masterStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO master_index (code, category, reference, description) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare master insert: %w", err)
	}
	defer masterStmt.Close()

	for code, entry := range index {
		if _, err := masterStmt.ExecContext(ctx, code, entry.Category, entry.Reference, entry.Description); err != nil {
			return fmt.Errorf("insert master entry %s: %w", code, err)
		}
	}

	salesStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO sales_records (date, store, product, quantity, category, sku) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sales insert: %w", err)
	}
	defer salesStmt.Close()

	for _, rec := range sales {
		var date any
		if rec.Date != nil {
			date = rec.Date.Format(dateLayout)
		}
		if _, err := salesStmt.ExecContext(ctx, date, rec.Store, rec.Product, rec.Quantity, rec.Category, rec.SKU); err != nil {
			return fmt.Errorf("insert sales record: %w", err)
		}
	}

	invStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inventory_records (sku, product, stock, store) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare inventory insert: %w", err)
	}
	defer invStmt.Close()

	for _, rec := range inventory {
		if _, err := invStmt.ExecContext(ctx, rec.SKU, rec.Product, rec.Stock, rec.Store); err != nil {
			return fmt.Errorf("insert inventory record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "snapshot saved",
			slog.Int("master_entries", len(index)),
			slog.Int("sales_records", len(sales)),
			slog.Int("inventory_records", len(inventory)),
		)
	}
	return nil
}

// LoadSnapshot reads the persisted snapshot back into memory.
func (s *Store) LoadSnapshot(ctx context.Context) (domain.MasterIndex, []domain.SalesRecord, []domain.InventoryRecord, error) {
	index := domain.MasterIndex{}

	rows, err := s.db.QueryContext(ctx, `SELECT code, category, reference, description FROM master_index`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load master index: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var entry domain.MasterEntry
		if err := rows.Scan(&code, &entry.Category, &entry.Reference, &entry.Description); err != nil {
			return nil, nil, nil, fmt.Errorf("scan master entry: %w", err)
		}
		index[code] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate master index: %w", err)
	}

	sales, err := s.loadSales(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	inventory, err := s.loadInventory(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	return index, sales, inventory, nil
}

func (s *Store) loadSales(ctx context.Context) ([]domain.SalesRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, store, product, quantity, category, sku FROM sales_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load sales records: %w", err)
	}
	defer rows.Close()

	var records []domain.SalesRecord
	for rows.Next() {
		var rec domain.SalesRecord
		var date sql.NullString
		if err := rows.Scan(&date, &rec.Store, &rec.Product, &rec.Quantity, &rec.Category, &rec.SKU); err != nil {
			return nil, fmt.Errorf("scan sales record: %w", err)
		}
		if date.Valid {
			t, err := time.ParseInLocation(dateLayout, date.String, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parse sales date %q: %w", date.String, err)
			}
			rec.Date = &t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) loadInventory(ctx context.Context) ([]domain.InventoryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sku, product, stock, store FROM inventory_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load inventory records: %w", err)
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		if err := rows.Scan(&rec.SKU, &rec.Product, &rec.Stock, &rec.Store); err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear removes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"master_index", "sales_records", "inventory_records"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
