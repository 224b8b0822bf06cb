package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
)

const (
	sqliteCreateFolioTable = `CREATE TABLE IF NOT EXISTS folio_counter (
	id    INTEGER PRIMARY KEY,
	value INTEGER NOT NULL
)`
	sqliteSeedFolio = `INSERT INTO folio_counter (id, value) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`
	sqliteNextFolio = `UPDATE folio_counter SET value = value + 1 WHERE id = ? RETURNING value`
)

// SQLDB defines the database/sql operations needed by SQLiteFolioRepository.
type SQLDB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
}

// SQLiteFolioRepository persists the folio counter in an embedded SQLite file,
// for single-instance deployments without PostgreSQL.
type SQLiteFolioRepository struct {
	db SQLDB
}

// NewSQLiteFolioRepository creates a repository on an open database.
func NewSQLiteFolioRepository(db SQLDB) *SQLiteFolioRepository {
	return &SQLiteFolioRepository{db: db}
}

// Seed creates the counter table if needed and initialises the counter to
// start, keeping any existing value.
func (r *SQLiteFolioRepository) Seed(ctx context.Context, start int64) error {
	if _, err := r.db.ExecContext(ctx, sqliteCreateFolioTable); err != nil {
		return fmt.Errorf("create folio table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, sqliteSeedFolio, folioCounterID, start); err != nil {
		return fmt.Errorf("seed folio counter: %w", err)
	}
	return nil
}

// Next increments the counter and returns the new value.
func (r *SQLiteFolioRepository) Next(ctx context.Context) (int64, error) {
	var value int64
	err := r.db.QueryRowContext(ctx, sqliteNextFolio, folioCounterID).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, service.ErrFolioNotSeeded
		}
		return 0, fmt.Errorf("increment folio: %w", err)
	}
	return value, nil
}

// Ping checks that the database file is usable.
func (r *SQLiteFolioRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
