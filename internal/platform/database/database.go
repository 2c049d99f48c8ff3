// Package database owns the PostgreSQL connection pool and the transaction
// boundary helper. Each unit of work (one consumer batch, one maintenance-job
// row) opens exactly one transaction via WithinTx; stores join it through the
// transaction stored in context.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"syfooversiktsrv/pkg/platform/tx"
)

// Config carries connection settings for the aggregate database.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DB wraps the SQL pool with transaction and health helpers.
type DB struct {
	*sql.DB
}

// New opens and pings the connection pool.
func New(cfg Config) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// WithinTx runs fn inside one transaction, committing on nil and rolling back
// on error or panic. The transaction is placed in fn's context so stores join
// it transparently.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Health checks connectivity for the readiness probe.
func (d *DB) Health(ctx context.Context) error {
	return d.PingContext(ctx)
}

// TxRunner is the transaction boundary consumed by consumers and jobs;
// satisfied by *DB and by test doubles that skip real transactions.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopTxRunner runs fn without a transaction, for unit tests on in-memory stores.
type NopTxRunner struct{}

func (NopTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
