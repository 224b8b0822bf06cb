package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/coupon-pdf-tools/internal/service"
)

// folioCounterID is the primary key of the single counter row.
const folioCounterID = 1

const (
	pgCreateFolioTable = `CREATE TABLE IF NOT EXISTS folio_counter (
	id    SMALLINT PRIMARY KEY,
	value BIGINT   NOT NULL
)`
	pgSeedFolio = `INSERT INTO folio_counter (id, value) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	pgNextFolio = `UPDATE folio_counter SET value = value + 1 WHERE id = $1 RETURNING value`
)

// PoolInterface defines the database operations needed by FolioRepository.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// FolioRepository persists the folio counter in PostgreSQL.
type FolioRepository struct {
	pool PoolInterface
}

// NewFolioRepository creates a new FolioRepository with the given pool.
func NewFolioRepository(pool *pgxpool.Pool) *FolioRepository {
	return &FolioRepository{pool: pool}
}

// NewFolioRepositoryWithPool creates a new FolioRepository with a custom pool interface.
// This is primarily used for testing.
func NewFolioRepositoryWithPool(pool PoolInterface) *FolioRepository {
	return &FolioRepository{pool: pool}
}

// Seed creates the counter table if needed and initialises the counter to
// start. An existing counter is left untouched so restarts keep counting.
func (r *FolioRepository) Seed(ctx context.Context, start int64) error {
	if _, err := r.pool.Exec(ctx, pgCreateFolioTable); err != nil {
		return fmt.Errorf("create folio table: %w", err)
	}
	if _, err := r.pool.Exec(ctx, pgSeedFolio, folioCounterID, start); err != nil {
		return fmt.Errorf("seed folio counter: %w", err)
	}
	return nil
}

// Next increments the counter in a single statement and returns the new value.
// The row lock taken by UPDATE serializes concurrent callers.
// Returns service.ErrFolioNotSeeded if Seed was never run.
func (r *FolioRepository) Next(ctx context.Context) (int64, error) {
	var value int64
	err := r.pool.QueryRow(ctx, pgNextFolio, folioCounterID).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, service.ErrFolioNotSeeded
		}
		return 0, fmt.Errorf("increment folio: %w", err)
	}
	return value, nil
}

// Ping checks that the database is reachable.
func (r *FolioRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
