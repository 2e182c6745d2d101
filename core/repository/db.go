// Package repository persists job, workflow, and model records in
// PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/avast/retry-go"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

// DB wraps the shared connection pool handed to every repository.
type DB struct {
	*sql.DB
}

// NewDB opens the connection pool and verifies connectivity, retrying for a
// short while so the service survives a database that is still coming up.
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	err = retry.Do(
		func() error { return db.Ping() },
		retry.Attempts(5),
		retry.Delay(time.Second),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("Database not reachable yet, retrying (attempt %d)", n+1)
		}),
	)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	return &DB{DB: db}, nil
}

// InitSchema creates the tables if they do not exist yet.
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return errors.Wrap(err, "failed to initialize schema")
	}
	return nil
}

// WithTx runs fn inside a transaction, rolling back on error or panic.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			log.WithError(rbErr).Error("Rollback failed")
		}
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}
