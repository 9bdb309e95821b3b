// Package persistence applies the engine's TRADE and UNMATCHED_ORDER
// events to the relational store described in SPEC_FULL.md §6, and
// bootstraps the order producer's replay query against the same store.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"

	"github.com/openlob/matchcore/internal/config"
)

// ConnectionPool is a fixed-size pool of relational-store connections
// guarded by a mutex and condition variable, per SPEC_FULL.md §5(a). This
// is a direct correction-and-adaptation of the teacher's
// internal/db/connection_pool_fixed.go, which tracked the same counters
// but used database/sql's own pool underneath; here the counting
// semaphore is explicit so "acquire, use exclusively, return" is visible
// at the call site rather than hidden inside database/sql.
type ConnectionPool struct {
	db     *sqlx.DB
	size   int
	inUse  int
	mu     sync.Mutex
	cond   *sync.Cond
	logger *zap.Logger
}

// Open connects to the store named in cfg and builds a pool of size
// connections.
func Open(cfg config.DatabaseConfig, size int, logger *zap.Logger) (*ConnectionPool, error) {
	db, err := sqlx.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("persistence: ping: %w", err)
	}

	p := &ConnectionPool{db: db, size: size, logger: logger}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Acquire blocks until a pool slot is free, then returns the shared
// *sqlx.DB handle (database/sql connections are safe to hand out
// concurrently; the explicit counter is what keeps in-flight work bounded
// to size, matching the spec's fixed-size-pool contract).
func (p *ConnectionPool) Acquire(ctx context.Context) (*sqlx.DB, error) {
	p.mu.Lock()
	for p.inUse >= p.size {
		p.cond.Wait()
		if ctx.Err() != nil {
			p.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	p.inUse++
	p.mu.Unlock()
	return p.db, nil
}

// Release returns a slot to the pool.
func (p *ConnectionPool) Release() {
	p.mu.Lock()
	p.inUse--
	p.cond.Signal()
	p.mu.Unlock()
}

// Reopen closes and reconnects the underlying database handle. The
// persistence consumer does not call it: its retry (Consumer.withRetry)
// reruns the failed statement through the existing handle.
func (p *ConnectionPool) Reopen(cfg config.DatabaseConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		_ = p.db.Close()
	}
	db, err := sqlx.Open("pgx", cfg.DSN())
	if err != nil {
		return fmt.Errorf("persistence: reopen: %w", err)
	}
	db.SetMaxOpenConns(p.size)
	db.SetMaxIdleConns(p.size)
	if err := db.Ping(); err != nil {
		return fmt.Errorf("persistence: reopen ping: %w", err)
	}
	p.db = db
	p.inUse = 0
	return nil
}

func (p *ConnectionPool) Close() error {
	return p.db.Close()
}

// WithTx runs fn inside a single transaction, committing on success and
// rolling back otherwise.
func (p *ConnectionPool) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	db, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("persistence: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}

// Exec runs a single statement outside of a transaction, acquiring and
// releasing a pool slot around it.
func (p *ConnectionPool) Exec(ctx context.Context, query string, args ...interface{}) error {
	db, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release()

	_, err = db.ExecContext(ctx, query, args...)
	return err
}

// Select executes a query and scans the results into dest.
func (p *ConnectionPool) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	db, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release()
	return db.SelectContext(ctx, dest, query, args...)
}

// IsTransient reports whether err looks like a connectivity blip worth
// retrying rather than a fatal condition, per SPEC_FULL.md §7's
// transient/fatal split.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded)
}

// backoffInterval is the persistence consumer's fixed reconnect interval
// to the engine's events-out socket, per SPEC_FULL.md §4.4.
const backoffInterval = 5 * time.Second
