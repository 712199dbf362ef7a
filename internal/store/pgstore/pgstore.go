// Package pgstore implements the store interfaces on top of database/sql
// and github.com/lib/pq, the Postgres driver used by the same
// account-ledger-shaped HTTP service this pack's manifests retrieved
// alongside the teacher (see SPEC_FULL.md §4.L). It is the one place the
// ledger's logical persistence layout (spec.md §6) meets a concrete SQL
// dialect.
package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/coreledger/ledgerd/internal/apierr"
	"github.com/coreledger/ledgerd/internal/store"
)

// execer is satisfied by both *sql.DB and *sql.Tx, letting every
// component store run unmodified whether or not it's inside try_mine's
// atomic group.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the Postgres-backed store.Store implementation.
type Store struct {
	db *sql.DB // non-nil only at the top level, where WithinTx can BeginTx
	q  execer
}

// Open connects to the database named by dsn and pings it, matching the
// teacher's posture of failing fast at startup rather than lazily on first
// use (see DESIGN.md for the config-loading analogue).
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: open: %w", err))
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, apierr.Wrap(fmt.Errorf("pgstore: ping: %w", err))
	}
	return &Store{db: db, q: db}, nil
}

// Schema is the DDL for the logical tables in spec.md §6. Callers run it
// once at process bootstrap (see cmd/ledgerd).
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address    TEXT PRIMARY KEY,
	balance    NUMERIC(39,0) NOT NULL DEFAULT 0,
	nonce      BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blocks (
	id           BIGINT PRIMARY KEY,
	hash         TEXT,
	parent_hash  TEXT NOT NULL,
	merkle_root  TEXT NOT NULL,
	produced_by  TEXT,
	nonce        BIGINT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
	hash           TEXT PRIMARY KEY,
	"from"         TEXT NOT NULL,
	"to"           TEXT NOT NULL,
	amount         NUMERIC(39,0) NOT NULL,
	nonce          BIGINT NOT NULL,
	status         TEXT NOT NULL,
	block_id       BIGINT REFERENCES blocks(id),
	index_in_block BIGINT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS transactions_status_created_at_idx ON transactions (status, created_at);
CREATE INDEX IF NOT EXISTS transactions_from_idx ON transactions ("from");
CREATE INDEX IF NOT EXISTS transactions_to_idx ON transactions ("to");

CREATE TABLE IF NOT EXISTS merkle_nodes (
	block_id BIGINT NOT NULL REFERENCES blocks(id),
	root     TEXT NOT NULL,
	"index"  INT NOT NULL,
	node     BYTEA NOT NULL,
	UNIQUE(block_id, root, "index")
);
`

// Migrate applies Schema.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: migrate: %w", err))
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Accounts() store.AccountStore         { return accountStore{s.q} }
func (s *Store) Transactions() store.TransactionStore { return transactionStore{s.q} }
func (s *Store) Blocks() store.BlockStore             { return blockStore{s.q} }
func (s *Store) Merkle() store.MerkleStore            { return merkleStore{s.q} }

// WithinTx begins a database transaction and runs fn against a Store bound
// to it. Any error from fn rolls the whole group back; success commits it.
// This is the mechanism behind try_mine's atomic persistence group
// (spec.md §5).
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	if s.db == nil {
		return fmt.Errorf("pgstore: WithinTx called on a store already inside a transaction")
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: begin tx: %w", err))
	}
	txStore := &Store{q: sqlTx}

	if err := fn(ctx, txStore); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return apierr.Wrap(fmt.Errorf("pgstore: commit tx: %w", err))
	}
	return nil
}
