// Package store defines the persistence interfaces for accounts,
// transactions and blocks (spec.md §4.D-F) plus the Merkle node rows each
// committed block owns, and the atomic unit-of-work try_mine's persistence
// group requires (spec.md §5).
package store

import (
	"context"
	"math/big"

	"github.com/coreledger/ledgerd/internal/coretypes"
	"github.com/coreledger/ledgerd/internal/merkle"
	"github.com/coreledger/ledgerd/internal/primitives"
)

// AccountStore implements spec.md §4.D. Every read/write first ensures the
// address exists so an uninitialized address reads as zeros, never "not
// found".
type AccountStore interface {
	EnsureExists(ctx context.Context, addr primitives.Address) error
	GetBalance(ctx context.Context, addr primitives.Address) (primitives.Balance, error)
	GetNonce(ctx context.Context, addr primitives.Address) (uint64, error)
	// UpdateBalance performs an absolute set.
	UpdateBalance(ctx context.Context, addr primitives.Address, balance primitives.Balance) error
	UpdateNonce(ctx context.Context, addr primitives.Address, nonce uint64) error
	// CreditBalance performs a read-modify-write signed delta add (used by
	// the mining reward and by mint). delta may be negative.
	CreditBalance(ctx context.Context, addr primitives.Address, delta *big.Int) error
}

// TransactionStore implements spec.md §4.E.
type TransactionStore interface {
	AddPending(ctx context.Context, tx coretypes.Transaction) error
	Get(ctx context.Context, hash primitives.Hash) (*coretypes.Transaction, error)
	GetByParty(ctx context.Context, addr primitives.Address) ([]coretypes.Transaction, error)
	// GetPending returns up to limit Pending transactions ordered by
	// insertion timestamp ascending (FIFO mempool).
	GetPending(ctx context.Context, limit int) ([]coretypes.Transaction, error)
	// Confirm bulk-transitions hashes (in the given order) to Confirmed,
	// assigning block_id and index_in_block = position within hashes.
	Confirm(ctx context.Context, hashes []primitives.Hash, blockID uint64) error
}

// BlockStore implements spec.md §4.F.
type BlockStore interface {
	Add(ctx context.Context, b coretypes.Block) error
	// Latest returns (0, zero) when the chain is empty.
	Latest(ctx context.Context) (id uint64, hash primitives.Hash, err error)
	GetByID(ctx context.Context, id uint64) (*coretypes.Block, error)
	GetByHash(ctx context.Context, hash primitives.Hash) (*coretypes.Block, error)
}

// MerkleStore persists the 2*size-1 nodes of a committed block's tree.
type MerkleStore interface {
	AddNodes(ctx context.Context, blockID uint64, root primitives.Hash, nodes []merkle.Node) error
	GetNodes(ctx context.Context, blockID uint64) ([]merkle.Node, error)
}

// Store bundles the four component stores behind one handle, plus the
// atomic unit-of-work try_mine needs.
type Store interface {
	Accounts() AccountStore
	Transactions() TransactionStore
	Blocks() BlockStore
	Merkle() MerkleStore

	// WithinTx runs fn against a Store bound to a single database
	// transaction: if fn returns an error the whole group rolls back, per
	// spec.md §5's atomicity requirement for try_mine.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
